package ir

import (
	"strings"
	"testing"
)

func TestDisassembleWrapperShape(t *testing.T) {
	mod := NewModule("Disasm")
	typ := mod.AddType(NewType("Acme", "Widget", CategoryClass))
	orig := mod.AddMethod(typ, NewMethod("Format", AttrPublic|AttrHideBySig|AttrVirtual, stringRef,
		&Parameter{Name: "pattern", Type: stringRef},
	))
	orig.CustomAttributes = []*CustomAttribute{{Type: TypeRef{Namespace: "System", Name: "ObsoleteAttribute"}, Args: []string{`"old"`}}}

	w := NewMethod("DutifulFormat", AttrPublic|AttrHideBySig, typ.Ref(), orig.Parameters...)
	w.CustomAttributes = orig.CustomAttributes
	w.Body = NewBody()
	w.Body.EmitArg(OpLdarg, 0)
	w.Body.EmitArg(OpLdarg, 1)
	w.Body.EmitMethod(OpCallvirt, orig.ID)
	w.Body.Emit(OpPop)
	w.Body.EmitArg(OpLdarg, 0)
	w.Body.Emit(OpRet)
	w.Body.MaxStack = 2
	mod.AddMethod(typ, w)

	want := strings.Join([]string{
		"; === Acme.Widget::DutifulFormat(System.String) ===",
		"; .method public hidebysig instance Acme.Widget DutifulFormat(System.String pattern)",
		`; [System.ObsoleteAttribute("old")]`,
		"; MaxStack: 2",
		"0000  LDARG 0 ; this",
		"0001  LDARG 1 ; pattern",
		"0002  CALLVIRT 0 (Acme.Widget::Format(System.String))",
		"0003  POP",
		"0004  LDARG 0 ; this",
		"0005  RET",
		"",
	}, "\n")
	if got := mod.Disassemble(w); got != want {
		t.Errorf("Disassemble mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassembleHeaderAndOverrides(t *testing.T) {
	mod, _, base, derived := newTestModule()

	listing := mod.DisassembleModule()
	for _, want := range []string{
		"; Module Test",
		"; Object: System.Object  Void: System.Void",
		"; .class public Acme.Base extends System.Object",
		"; .class public Acme.Derived extends Acme.Base",
		"; overrides Acme.Base::ToString()",
		"; .method public instance virtual System.String ToString()",
		"; (no body)",
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
	// Imported types are not listed.
	if strings.Contains(listing, "; .class public System.Object") {
		t.Error("listing includes imported System.Object")
	}

	if got := mod.DisassembleType(derived); strings.Contains(got, "Acme.Base::ToString() ===") {
		t.Errorf("DisassembleType(Derived) lists Base methods:\n%s", got)
	}
	if !strings.Contains(mod.DisassembleType(base), "; overrides System.Object::ToString()") {
		t.Error("Base::ToString does not show its override")
	}
}

func TestDisassembleConstants(t *testing.T) {
	mod := NewModule("Disasm")
	typ := mod.AddType(NewType("", "Consts", CategoryStruct))
	m := NewMethod("Values", AttrFamily|AttrStatic, mod.TypeSystem.Void)
	m.Body = NewBody()
	m.Body.EmitInt(OpLdcI4, -4)
	m.Body.EmitString(OpLdstr, strings.Repeat("a", 50))
	m.Body.Emit(OpLdnull)
	m.Body.EmitMethod(OpCall, 42)
	m.Body.Emit(Opcode(0x99))
	mod.AddMethod(typ, m)

	got := mod.Disassemble(m)
	for _, want := range []string{
		"; .method protected static System.Void Values()",
		"0000  LDC_I4 -4",
		`0001  LDSTR "` + strings.Repeat("a", 37) + `..."`,
		"0002  LDNULL",
		"0003  CALL 42 (?)",
		"0004  UNKNOWN_99",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}
