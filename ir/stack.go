package ir

import "fmt"

// StackError reports an instruction that leaves the evaluation stack in an
// impossible state.
type StackError struct {
	Method string // signature of the analyzed method
	Offset int    // index of the offending instruction
	Reason string
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%s: instruction %04X: %s", e.Method, e.Offset, e.Reason)
}

// CallEffect returns how many values a call to target pops and pushes.
func (m *Module) CallEffect(target *Method) (pop, push int) {
	pop = len(target.Parameters)
	if target.HasThis() {
		pop++
	}
	if !m.IsVoid(target.ReturnType) {
		push = 1
	}
	return pop, push
}

// AnalyzeStack walks meth's body and returns the maximum evaluation stack
// depth it reaches. It fails when an instruction pops more values than are
// present, loads an argument slot the method does not have, calls an
// unknown method, or returns with a stack that does not match the return
// type.
func (m *Module) AnalyzeStack(meth *Method) (int, error) {
	if meth.Body == nil {
		return 0, nil
	}

	fail := func(offset int, format string, args ...any) (int, error) {
		return 0, &StackError{
			Method: meth.Signature(),
			Offset: offset,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	depth, maxDepth := 0, 0
	for offset, in := range meth.Body.Instructions {
		info := GetOpcodeInfo(in.Op)
		if !in.Op.IsValid() {
			return fail(offset, "unknown opcode 0x%02X", byte(in.Op))
		}

		pop, push := info.StackPop, info.StackPush
		switch {
		case in.Op == OpLdarg:
			if in.Int < 0 || in.Int >= meth.ArgCount() {
				return fail(offset, "argument slot %d out of range (method has %d)", in.Int, meth.ArgCount())
			}
		case in.Op.IsCall():
			target := m.Method(in.Method)
			if target == nil {
				return fail(offset, "call to unknown method %d", in.Method)
			}
			if in.Op == OpCallvirt && target.IsStatic() {
				return fail(offset, "callvirt to static method %s", target.Signature())
			}
			pop, push = m.CallEffect(target)
		case in.Op == OpRet:
			want := 1
			if m.IsVoid(meth.ReturnType) {
				want = 0
			}
			if depth != want {
				return fail(offset, "return with %d values on the stack, want %d", depth, want)
			}
			pop = want
		}

		if depth < pop {
			return fail(offset, "%s pops %d values, stack has %d", info.Name, pop, depth)
		}
		depth += push - pop
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	return maxDepth, nil
}
