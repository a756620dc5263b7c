package scope

import (
	"errors"
	"fmt"
	"sync"
)

type declaredType struct {
	ref  TypeRef
	caps Capability
}

type unitEntry struct {
	unit  Unit
	types []declaredType
	index map[string]int
}

// Registry is the in-process capability table of units and their declared types.
type Registry struct {
	mutex sync.RWMutex
	units map[string]*unitEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]*unitEntry),
	}
}

// AddUnit registers a deployable unit. Registering the same path twice fails unless the
// descriptors are identical.
func (r *Registry) AddUnit(unit Unit) error {
	if unit.Path == "" {
		return errors.New("unit path is required")
	}
	if unit.Name == "" {
		return fmt.Errorf("unit %s has no name", unit.Path)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.units[unit.Path]; ok {
		if existing.unit == unit {
			return nil
		}
		return fmt.Errorf("unit %s is already registered", unit.Path)
	}

	r.units[unit.Path] = &unitEntry{unit: unit, index: make(map[string]int)}
	return nil
}

// Declare records that the type t belongs to its unit and carries caps. Repeated
// declarations of the same type merge capabilities and keep the first position.
func (r *Registry) Declare(t TypeRef, caps Capability) error {
	if t.Name == "" {
		return errors.New("declared type has no name")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.units[t.Unit]
	if !ok {
		return fmt.Errorf("unit %s is not registered", t.Unit)
	}

	if pos, exists := entry.index[t.Name]; exists {
		entry.types[pos].caps |= caps
		return nil
	}

	entry.index[t.Name] = len(entry.types)
	entry.types = append(entry.types, declaredType{ref: t, caps: caps})
	return nil
}

// Unit returns the unit registered under path.
func (r *Registry) Unit(path string) (Unit, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.units[path]
	if !ok {
		return Unit{}, false
	}
	return entry.unit, true
}

// Units lists all registered units.
func (r *Registry) Units() []Unit {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	units := make([]Unit, 0, len(r.units))
	for _, entry := range r.units {
		units = append(units, entry.unit)
	}
	return units
}

// DeclaredTypes lists the types of a unit in declaration order.
func (r *Registry) DeclaredTypes(path string) []TypeRef {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.units[path]
	if !ok {
		return nil
	}

	out := make([]TypeRef, len(entry.types))
	for i, dt := range entry.types {
		out[i] = dt.ref
	}
	return out
}

// Implements reports whether t carries capability c.
func (r *Registry) Implements(t TypeRef, c Capability) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.units[t.Unit]
	if !ok {
		return false
	}
	pos, ok := entry.index[t.Name]
	if !ok {
		return false
	}
	return entry.types[pos].caps.Has(c)
}

// Resolve finds the owner of t using this registry as the catalog.
func (r *Registry) Resolve(t TypeRef) (Owner, error) {
	return NewResolver(r).Resolve(t)
}

var _ Catalog = (*Registry)(nil)
