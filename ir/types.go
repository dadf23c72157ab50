package ir

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Type references
// ---------------------------------------------------------------------------

// TypeRef names a type by namespace and name. Two references are identical
// when both parts are equal, so TypeRef values can be compared with ==.
type TypeRef struct {
	Namespace string `cbor:"1,keyasint,omitempty"`
	Name      string `cbor:"2,keyasint"`
}

// FullName returns the qualified name, e.g. "System.Object".
func (r TypeRef) FullName() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "." + r.Name
}

// String implements fmt.Stringer.
func (r TypeRef) String() string {
	return r.FullName()
}

// IsZero reports whether the reference names nothing.
func (r TypeRef) IsZero() bool {
	return r.Namespace == "" && r.Name == ""
}

// ParseTypeRef splits a qualified name at its last dot.
// "System.Text.StringBuilder" -> {System.Text, StringBuilder}.
func ParseTypeRef(fullName string) TypeRef {
	if i := strings.LastIndexByte(fullName, '.'); i > 0 && i < len(fullName)-1 {
		return TypeRef{Namespace: fullName[:i], Name: fullName[i+1:]}
	}
	return TypeRef{Name: fullName}
}

// ---------------------------------------------------------------------------
// Type definitions
// ---------------------------------------------------------------------------

// TypeID addresses a Type in its Module's arena.
type TypeID int32

// NoType is the TypeID used where no type is linked.
const NoType TypeID = -1

// Category classifies a type definition.
type Category uint8

const (
	CategoryClass Category = iota
	CategoryStruct
	CategoryEnum
	CategoryInterface
)

// String returns a lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryClass:
		return "class"
	case CategoryStruct:
		return "struct"
	case CategoryEnum:
		return "enum"
	case CategoryInterface:
		return "interface"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// Type is a type definition owned by a Module.
type Type struct {
	ID        TypeID
	Namespace string
	Name      string
	Public    bool
	Category  Category

	// BaseType links to the base class, or NoType.
	BaseType TypeID

	// Imported marks a type defined in another module. Imported types are
	// kept for override-chain resolution only.
	Imported bool

	// methods holds the declared methods in declaration order. Append only.
	methods []MethodID
}

// NewType creates a public type with no base type.
func NewType(namespace, name string, category Category) *Type {
	return &Type{
		Namespace: namespace,
		Name:      name,
		Public:    true,
		Category:  category,
		BaseType:  NoType,
	}
}

// FullName returns the qualified type name.
func (t *Type) FullName() string {
	return t.Ref().FullName()
}

// Ref returns a reference to this type.
func (t *Type) Ref() TypeRef {
	return TypeRef{Namespace: t.Namespace, Name: t.Name}
}

// IsEnum reports whether the type is an enum.
func (t *Type) IsEnum() bool { return t.Category == CategoryEnum }

// IsInterface reports whether the type is an interface.
func (t *Type) IsInterface() bool { return t.Category == CategoryInterface }

// IsValueType reports whether instances have value semantics.
func (t *Type) IsValueType() bool {
	return t.Category == CategoryStruct || t.Category == CategoryEnum
}

// MethodIDs returns a copy of the declared method list.
func (t *Type) MethodIDs() []MethodID {
	ids := make([]MethodID, len(t.methods))
	copy(ids, t.methods)
	return ids
}

// MethodCount returns the number of declared methods.
func (t *Type) MethodCount() int {
	return len(t.methods)
}
