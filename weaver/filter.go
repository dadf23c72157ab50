package weaver

import (
	"fmt"

	"github.com/licshee/dutiful/ir"
	"github.com/licshee/dutiful/rules"
)

// Verdict is the outcome of checking one method for eligibility. Every
// value other than Eligible names the first check that failed.
type Verdict uint8

const (
	Eligible Verdict = iota
	NotVisible
	Static
	Constructor
	Accessor
	AlreadyFluent
	StoppedDeclaringType
	StoppedMethodName
	StoppedReturnType
)

// String returns a short description of the verdict.
func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case NotVisible:
		return "not public or protected"
	case Static:
		return "static"
	case Constructor:
		return "constructor"
	case Accessor:
		return "property or event accessor"
	case AlreadyFluent:
		return "already returns its declaring type"
	case StoppedDeclaringType:
		return "declaring type stopped"
	case StoppedMethodName:
		return "method name stopped"
	case StoppedReturnType:
		return "return type stopped"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// Filter decides which methods receive a wrapper. It is pure: the verdict
// for one method never depends on other methods having been wrapped.
type Filter struct {
	mod   *ir.Module
	rules *rules.Set
}

// NewFilter creates a filter over mod using a compiled rule set.
func NewFilter(mod *ir.Module, set *rules.Set) *Filter {
	return &Filter{mod: mod, rules: set}
}

// Eligible reports whether m should be wrapped.
func (f *Filter) Eligible(m *ir.Method) bool {
	return f.Check(m) == Eligible
}

// Check runs the structural preconditions, then the stop-word rules.
func (f *Filter) Check(m *ir.Method) Verdict {
	switch {
	case !(m.IsPublic() || m.IsFamily()):
		return NotVisible
	case m.IsStatic():
		return Static
	case m.IsConstructor():
		return Constructor
	case m.IsAccessor():
		return Accessor
	}

	declaring := f.mod.DeclaringType(m)
	if declaring != nil && m.ReturnType == declaring.Ref() {
		return AlreadyFluent
	}

	// Overrides of a stopped member stay stopped, so the check uses the
	// type that introduced the slot.
	if origin := f.mod.DeclaringType(f.mod.OriginalBaseMethod(m)); origin != nil {
		if f.rules.DeclaringType.Match(origin.FullName()) {
			return StoppedDeclaringType
		}
	}

	if f.rules.MethodName.Match(m.Name) {
		return StoppedMethodName
	}
	if f.rules.ReturnType.Match(m.ReturnType.FullName()) {
		return StoppedReturnType
	}
	return Eligible
}
