package ir

// ---------------------------------------------------------------------------
// TypeSystem: well-known type references
// ---------------------------------------------------------------------------

// TypeSystem names the well-known types of the module's core library.
type TypeSystem struct {
	Object TypeRef `cbor:"1,keyasint"` // root of the class hierarchy
	Void   TypeRef `cbor:"2,keyasint"` // return type of methods returning nothing
}

// DefaultTypeSystem returns the CLI core library names.
func DefaultTypeSystem() TypeSystem {
	return TypeSystem{
		Object: TypeRef{Namespace: "System", Name: "Object"},
		Void:   TypeRef{Namespace: "System", Name: "Void"},
	}
}

// ---------------------------------------------------------------------------
// Module: arena of types and methods
// ---------------------------------------------------------------------------

// Module is a compiled unit. It owns every Type and Method; all links
// between them are IDs into these arenas.
type Module struct {
	Name       string
	TypeSystem TypeSystem

	types   []*Type
	methods []*Method
}

// NewModule creates an empty module using the default type system.
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		TypeSystem: DefaultTypeSystem(),
	}
}

// AddType registers a type and assigns its ID.
func (m *Module) AddType(t *Type) *Type {
	t.ID = TypeID(len(m.types))
	t.methods = nil
	m.types = append(m.types, t)
	return t
}

// Type returns the type with the given ID, or nil.
func (m *Module) Type(id TypeID) *Type {
	if id < 0 || int(id) >= len(m.types) {
		return nil
	}
	return m.types[id]
}

// Types returns the types defined by this module (imported types are
// excluded) in registration order.
func (m *Module) Types() []*Type {
	out := make([]*Type, 0, len(m.types))
	for _, t := range m.types {
		if !t.Imported {
			out = append(out, t)
		}
	}
	return out
}

// AllTypes returns every type in the arena, imported ones included.
func (m *Module) AllTypes() []*Type {
	out := make([]*Type, len(m.types))
	copy(out, m.types)
	return out
}

// LookupType finds a type by full name.
func (m *Module) LookupType(fullName string) *Type {
	for _, t := range m.types {
		if t.FullName() == fullName {
			return t
		}
	}
	return nil
}

// AddMethod registers a method, assigns its ID, links it to t and appends
// it to t's method list.
func (m *Module) AddMethod(t *Type, meth *Method) *Method {
	meth.ID = MethodID(len(m.methods))
	meth.DeclaringType = t.ID
	m.methods = append(m.methods, meth)
	t.methods = append(t.methods, meth.ID)
	return meth
}

// Method returns the method with the given ID, or nil.
func (m *Module) Method(id MethodID) *Method {
	if id < 0 || int(id) >= len(m.methods) {
		return nil
	}
	return m.methods[id]
}

// MethodCount returns the number of methods in the arena.
func (m *Module) MethodCount() int {
	return len(m.methods)
}

// MethodsOf returns a snapshot of t's declared methods. Methods appended
// to t afterwards do not appear in the returned slice.
func (m *Module) MethodsOf(t *Type) []*Method {
	out := make([]*Method, len(t.methods))
	for i, id := range t.methods {
		out[i] = m.methods[id]
	}
	return out
}

// FindMethod returns the first method of t with the given name, or nil.
func (m *Module) FindMethod(t *Type, name string) *Method {
	for _, id := range t.methods {
		if meth := m.methods[id]; meth.Name == name {
			return meth
		}
	}
	return nil
}

// FindMethodBySignature returns the method of t whose Signature equals sig.
func (m *Module) FindMethodBySignature(t *Type, sig string) *Method {
	for _, id := range t.methods {
		if meth := m.methods[id]; meth.Signature() == sig {
			return meth
		}
	}
	return nil
}

// DeclaringType returns the type that declares meth.
func (m *Module) DeclaringType(meth *Method) *Type {
	return m.Type(meth.DeclaringType)
}

// OriginalBaseMethod walks BaseMethod links from meth to the declaration
// that introduced the slot. A method that overrides nothing is its own
// original base method. Broken or cyclic chains stop at the last method
// reached.
func (m *Module) OriginalBaseMethod(meth *Method) *Method {
	current := meth
	for steps := 0; steps < len(m.methods); steps++ {
		base := m.Method(current.BaseMethod)
		if base == nil {
			break
		}
		current = base
	}
	return current
}

// Overrides reports whether meth is target or overrides it, directly or
// through a chain of overrides.
func (m *Module) Overrides(meth, target *Method) bool {
	current := meth
	for steps := 0; current != nil && steps <= len(m.methods); steps++ {
		if current.ID == target.ID {
			return true
		}
		current = m.Method(current.BaseMethod)
	}
	return false
}

// BaseTypeOf returns t's base type, or nil.
func (m *Module) BaseTypeOf(t *Type) *Type {
	return m.Type(t.BaseType)
}

// IsVoid reports whether ref is the module's void type.
func (m *Module) IsVoid(ref TypeRef) bool {
	return ref == m.TypeSystem.Void
}
