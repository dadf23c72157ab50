package weaver

import (
	"fmt"

	"github.com/licshee/dutiful/ir"
)

// wrapperAttributes are the only attribute bits a wrapper inherits.
const wrapperAttributes = ir.MemberAccessMask | ir.AttrHideBySig | ir.AttrStatic

// Synthesize builds the dutiful variant of m named name. The result is not
// yet registered with the module; m is not modified. An error means the
// generated body failed stack analysis, which only happens when m's
// metadata is inconsistent.
//
// The wrapper shares m's parameters and custom attributes and has the body
//
//	LDARG 0
//	LDARG 1 .. LDARG k
//	CALLVIRT m
//	POP            ; only when m returns a value
//	LDARG 0
//	RET
func Synthesize(mod *ir.Module, m *ir.Method, name string) (*ir.Method, error) {
	dutiful := &ir.Method{
		ID:            ir.NoMethod,
		Name:          name,
		Attributes:    m.Attributes & wrapperAttributes,
		Kind:          ir.KindOrdinary,
		DeclaringType: m.DeclaringType,
		BaseMethod:    ir.NoMethod,
	}
	if t := mod.DeclaringType(m); t != nil {
		dutiful.ReturnType = t.Ref()
	}

	dutiful.CustomAttributes = append(dutiful.CustomAttributes, m.CustomAttributes...)
	dutiful.Parameters = append(dutiful.Parameters, m.Parameters...)

	body := ir.NewBody()
	loadArguments(body, len(dutiful.Parameters))

	body.EmitMethod(ir.OpCallvirt, m.ID)
	if !mod.IsVoid(m.ReturnType) {
		body.Emit(ir.OpPop)
	}

	body.EmitArg(ir.OpLdarg, 0)
	body.Emit(ir.OpRet)

	dutiful.Body = body

	depth, err := mod.AnalyzeStack(dutiful)
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", name, err)
	}
	body.MaxStack = depth
	return dutiful, nil
}

// loadArguments pushes the receiver and count parameters in slot order.
func loadArguments(body *ir.Body, count int) {
	body.EmitArg(ir.OpLdarg, 0)
	for i := 1; i <= count; i++ {
		body.EmitArg(ir.OpLdarg, i)
	}
}
