package ir

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Method attributes
// ---------------------------------------------------------------------------

// MethodAttributes is the method flag word. The bit layout follows the
// ECMA-335 MethodAttributes table so that images produced from real
// metadata keep their flags unchanged.
type MethodAttributes uint16

const (
	MemberAccessMask MethodAttributes = 0x0007

	AttrCompilerControlled MethodAttributes = 0x0000
	AttrPrivate            MethodAttributes = 0x0001
	AttrFamANDAssem        MethodAttributes = 0x0002
	AttrAssembly           MethodAttributes = 0x0003
	AttrFamily             MethodAttributes = 0x0004
	AttrFamORAssem         MethodAttributes = 0x0005
	AttrPublic             MethodAttributes = 0x0006

	AttrStatic      MethodAttributes = 0x0010
	AttrFinal       MethodAttributes = 0x0020
	AttrVirtual     MethodAttributes = 0x0040
	AttrHideBySig   MethodAttributes = 0x0080
	AttrNewSlot     MethodAttributes = 0x0100
	AttrAbstract    MethodAttributes = 0x0400
	AttrSpecialName MethodAttributes = 0x0800
)

// Visibility is the access level carried in the MemberAccessMask bits.
type Visibility MethodAttributes

const (
	VisibilityCompilerControlled = Visibility(AttrCompilerControlled)
	VisibilityPrivate            = Visibility(AttrPrivate)
	VisibilityPrivateProtected   = Visibility(AttrFamANDAssem)
	VisibilityInternal           = Visibility(AttrAssembly)
	VisibilityProtected          = Visibility(AttrFamily)
	VisibilityProtectedInternal  = Visibility(AttrFamORAssem)
	VisibilityPublic             = Visibility(AttrPublic)
)

// String returns the access level as source keywords.
func (v Visibility) String() string {
	switch v {
	case VisibilityCompilerControlled:
		return "compilercontrolled"
	case VisibilityPrivate:
		return "private"
	case VisibilityPrivateProtected:
		return "private protected"
	case VisibilityInternal:
		return "internal"
	case VisibilityProtected:
		return "protected"
	case VisibilityProtectedInternal:
		return "protected internal"
	case VisibilityPublic:
		return "public"
	default:
		return fmt.Sprintf("Visibility(%d)", uint16(v))
	}
}

// MethodKind distinguishes ordinary methods from constructors and
// property/event accessors.
type MethodKind uint8

const (
	KindOrdinary MethodKind = iota
	KindConstructor
	KindGetter
	KindSetter
	KindAdder
	KindRemover
)

// String returns a short kind name.
func (k MethodKind) String() string {
	switch k {
	case KindOrdinary:
		return "method"
	case KindConstructor:
		return "ctor"
	case KindGetter:
		return "getter"
	case KindSetter:
		return "setter"
	case KindAdder:
		return "adder"
	case KindRemover:
		return "remover"
	default:
		return fmt.Sprintf("MethodKind(%d)", k)
	}
}

// ---------------------------------------------------------------------------
// Method definitions
// ---------------------------------------------------------------------------

// MethodID addresses a Method in its Module's arena.
type MethodID int32

// NoMethod is the MethodID used where no method is linked.
const NoMethod MethodID = -1

// Parameter is a declared method parameter. Parameters are immutable once
// built and may be shared between methods.
type Parameter struct {
	Name  string  `cbor:"1,keyasint"`
	Type  TypeRef `cbor:"2,keyasint"`
	Index int     `cbor:"3,keyasint"` // position among declared parameters
	ByRef bool    `cbor:"4,keyasint,omitempty"`
}

// CustomAttribute is a piece of custom metadata attached to a method.
type CustomAttribute struct {
	Type TypeRef  `cbor:"1,keyasint"`
	Args []string `cbor:"2,keyasint,omitempty"`
}

// Method is a method definition owned by a Module.
type Method struct {
	ID            MethodID
	Name          string
	Attributes    MethodAttributes
	Kind          MethodKind
	DeclaringType TypeID
	ReturnType    TypeRef

	Parameters       []*Parameter
	CustomAttributes []*CustomAttribute

	// Body is nil for abstract methods and for methods implemented
	// natively by the host.
	Body *Body

	// BaseMethod links to the method this one overrides, or NoMethod when
	// the method introduces its own slot.
	BaseMethod MethodID
}

// NewMethod creates an ordinary method that overrides nothing.
func NewMethod(name string, attrs MethodAttributes, returnType TypeRef, params ...*Parameter) *Method {
	for i, p := range params {
		p.Index = i
	}
	return &Method{
		Name:          name,
		Attributes:    attrs,
		ReturnType:    returnType,
		Parameters:    params,
		DeclaringType: NoType,
		BaseMethod:    NoMethod,
	}
}

// Visibility returns the access level.
func (m *Method) Visibility() Visibility {
	return Visibility(m.Attributes & MemberAccessMask)
}

// IsPublic reports public access.
func (m *Method) IsPublic() bool { return m.Visibility() == VisibilityPublic }

// IsFamily reports protected access.
func (m *Method) IsFamily() bool { return m.Visibility() == VisibilityProtected }

// IsStatic reports a static method.
func (m *Method) IsStatic() bool { return m.Attributes&AttrStatic != 0 }

// IsVirtual reports a virtual method.
func (m *Method) IsVirtual() bool { return m.Attributes&AttrVirtual != 0 }

// IsConstructor reports an instance or type constructor.
func (m *Method) IsConstructor() bool { return m.Kind == KindConstructor }

// IsAccessor reports a property or event accessor.
func (m *Method) IsAccessor() bool {
	switch m.Kind {
	case KindGetter, KindSetter, KindAdder, KindRemover:
		return true
	}
	return false
}

// HasThis reports whether argument slot 0 holds the receiver.
func (m *Method) HasThis() bool { return !m.IsStatic() }

// ArgCount returns the number of argument slots, including the receiver.
func (m *Method) ArgCount() int {
	if m.HasThis() {
		return len(m.Parameters) + 1
	}
	return len(m.Parameters)
}

// ParameterTypes returns the declared parameter type names in order.
// By-ref parameters carry a trailing "&".
func (m *Method) ParameterTypes() []string {
	out := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		out[i] = p.Type.FullName()
		if p.ByRef {
			out[i] += "&"
		}
	}
	return out
}

// Signature returns "Name(T1, T2)", which identifies the method among its
// overloads.
func (m *Method) Signature() string {
	return m.Name + "(" + strings.Join(m.ParameterTypes(), ", ") + ")"
}
