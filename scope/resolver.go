package scope

import "fmt"

// Resolver picks the owner of a type from the catalog of its unit.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a resolver reading from catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve returns the first module declared in the unit of candidate, falling back to the
// first request handler. ErrNoOwnerFound is returned when the unit is unknown or neither
// capability is declared.
func (r *Resolver) Resolve(candidate TypeRef) (Owner, error) {
	unit, ok := r.catalog.Unit(candidate.Unit)
	if !ok {
		return Owner{}, fmt.Errorf("%w: unit %q of %s is not registered", ErrNoOwnerFound, candidate.Unit, candidate)
	}

	declared := r.catalog.DeclaredTypes(unit.Path)

	for _, c := range []Capability{CapabilityModule, CapabilityRequestHandler} {
		for _, t := range declared {
			if r.catalog.Implements(t, c) {
				return Owner{Unit: unit, Type: t, Capability: c}, nil
			}
		}
	}

	return Owner{}, fmt.Errorf("%w: unit %s declares no module or request handler", ErrNoOwnerFound, unit.Path)
}
