package ir

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of meth.
func (m *Module) Disassemble(meth *Method) string {
	var sb strings.Builder
	m.writeMethod(&sb, meth)
	return sb.String()
}

// DisassembleType returns the listing of every method declared by t.
func (m *Module) DisassembleType(t *Type) string {
	var sb strings.Builder
	m.writeType(&sb, t)
	return sb.String()
}

// DisassembleModule returns the listing of every type defined by the module.
func (m *Module) DisassembleModule() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; Module %s\n", m.Name))
	sb.WriteString(fmt.Sprintf("; Object: %s  Void: %s\n", m.TypeSystem.Object, m.TypeSystem.Void))
	for _, t := range m.Types() {
		sb.WriteString("\n")
		m.writeType(&sb, t)
	}
	return sb.String()
}

func (m *Module) writeType(sb *strings.Builder, t *Type) {
	access := "private"
	if t.Public {
		access = "public"
	}
	sb.WriteString(fmt.Sprintf("; .%s %s %s", t.Category, access, t.FullName()))
	if base := m.BaseTypeOf(t); base != nil {
		sb.WriteString(" extends " + base.FullName())
	}
	sb.WriteString("\n")
	for _, meth := range m.MethodsOf(t) {
		sb.WriteString("\n")
		m.writeMethod(sb, meth)
	}
}

func (m *Module) writeMethod(sb *strings.Builder, meth *Method) {
	sb.WriteString(fmt.Sprintf("; === %s ===\n", m.QualifiedName(meth)))
	sb.WriteString("; .method " + m.methodHeader(meth) + "\n")
	for _, attr := range meth.CustomAttributes {
		sb.WriteString(fmt.Sprintf("; [%s", attr.Type))
		if len(attr.Args) > 0 {
			sb.WriteString("(" + strings.Join(attr.Args, ", ") + ")")
		}
		sb.WriteString("]\n")
	}
	if base := m.Method(meth.BaseMethod); base != nil {
		sb.WriteString("; overrides " + m.QualifiedName(base) + "\n")
	}
	if meth.Body == nil {
		sb.WriteString("; (no body)\n")
		return
	}
	sb.WriteString(fmt.Sprintf("; MaxStack: %d\n", meth.Body.MaxStack))
	for offset := range meth.Body.Instructions {
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, m.disassembleInstruction(meth, offset)))
	}
}

// QualifiedName returns "Type::Name(T1, T2)".
func (m *Module) QualifiedName(meth *Method) string {
	owner := "?"
	if t := m.DeclaringType(meth); t != nil {
		owner = t.FullName()
	}
	return owner + "::" + meth.Signature()
}

func (m *Module) methodHeader(meth *Method) string {
	parts := []string{meth.Visibility().String()}
	if meth.Attributes&AttrHideBySig != 0 {
		parts = append(parts, "hidebysig")
	}
	if meth.IsStatic() {
		parts = append(parts, "static")
	} else {
		parts = append(parts, "instance")
	}
	if meth.IsVirtual() {
		parts = append(parts, "virtual")
	}
	if meth.Kind != KindOrdinary {
		parts = append(parts, meth.Kind.String())
	}

	params := make([]string, len(meth.Parameters))
	for i, p := range meth.Parameters {
		typ := p.Type.FullName()
		if p.ByRef {
			typ += "&"
		}
		params[i] = typ + " " + p.Name
	}
	parts = append(parts, fmt.Sprintf("%s %s(%s)", meth.ReturnType, meth.Name, strings.Join(params, ", ")))
	return strings.Join(parts, " ")
}

// disassembleInstruction formats the instruction at offset.
func (m *Module) disassembleInstruction(meth *Method, offset int) string {
	in := meth.Body.Instructions[offset]
	info := GetOpcodeInfo(in.Op)

	switch info.Operand {
	case OperandArg:
		if name := argName(meth, in.Int); name != "" {
			return fmt.Sprintf("%s %d ; %s", info.Name, in.Int, name)
		}
		return fmt.Sprintf("%s %d", info.Name, in.Int)

	case OperandInt:
		return fmt.Sprintf("%s %d", info.Name, in.Int)

	case OperandString:
		display := in.Str
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		return fmt.Sprintf("%s %q", info.Name, display)

	case OperandMethod:
		if target := m.Method(in.Method); target != nil {
			return fmt.Sprintf("%s %d (%s)", info.Name, in.Method, m.QualifiedName(target))
		}
		return fmt.Sprintf("%s %d (?)", info.Name, in.Method)

	default:
		return info.Name
	}
}

// argName returns the name of an argument slot, "this" for the receiver.
func argName(meth *Method, slot int) string {
	if meth.HasThis() {
		if slot == 0 {
			return "this"
		}
		slot--
	}
	if slot >= 0 && slot < len(meth.Parameters) {
		return meth.Parameters[slot].Name
	}
	return ""
}
