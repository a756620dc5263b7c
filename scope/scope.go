// Package scope resolves which deployable unit owns the translations of a type.
//
// Units and the types they declare are registered explicitly at startup, usually by the
// plugin loader, instead of being discovered through runtime type scanning.
package scope

import (
	"reflect"
	"strings"
)

// Capability marks what a declared type can act as when resolving owners.
type Capability uint8

const (
	// CapabilityModule is carried by the entry type of a plugin module.
	CapabilityModule Capability = 1 << iota
	// CapabilityRequestHandler is carried by request handling types such as controllers.
	CapabilityRequestHandler
)

// Has reports whether all bits of other are present in c.
func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

func (c Capability) String() string {
	var parts []string
	if c.Has(CapabilityModule) {
		parts = append(parts, "module")
	}
	if c.Has(CapabilityRequestHandler) {
		parts = append(parts, "request_handler")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// TypeRef identifies a type by the deployable unit declaring it and its simple name.
type TypeRef struct {
	Unit string
	Name string
}

func (t TypeRef) String() string {
	if t.Unit == "" {
		return t.Name
	}
	return t.Unit + "." + t.Name
}

// IsZero reports whether the reference points nowhere.
func (t TypeRef) IsZero() bool {
	return t.Unit == "" && t.Name == ""
}

// TypeOf builds the reference of T. Pointer types resolve to their element type.
func TypeOf[T any]() TypeRef {
	return TypeOfValue(reflect.TypeFor[T]())
}

// TypeOfValue builds the reference of an already obtained reflect.Type.
func TypeOfValue(t reflect.Type) TypeRef {
	if t == nil {
		return TypeRef{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return TypeRef{Unit: t.PkgPath(), Name: t.Name()}
}

// Unit is a deployable unit: the package whose directory holds its resource files.
type Unit struct {
	// Path is the import path used as the unit key.
	Path string
	// Name is the package name used in resource file names, e.g. "Blog".
	Name string
	// Dir is the directory the unit is deployed to.
	Dir string
}

// Owner is the resolved holder of a set of translations.
type Owner struct {
	Unit       Unit
	Type       TypeRef
	Capability Capability
}

// Catalog enumerates what a unit declares. It is implemented by Registry but any plugin
// loader keeping its own bookkeeping can provide it.
type Catalog interface {
	// Unit returns the unit registered under path.
	Unit(path string) (Unit, bool)
	// DeclaredTypes lists the types of a unit in declaration order.
	DeclaredTypes(path string) []TypeRef
	// Implements reports whether t carries capability c.
	Implements(t TypeRef, c Capability) bool
}
