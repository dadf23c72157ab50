package interp_test

import (
	"errors"
	"testing"

	"github.com/licshee/dutiful/internal/fixture"
	"github.com/licshee/dutiful/interp"
	"github.com/licshee/dutiful/ir"
)

func TestBodyExecution(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	obj := m.NewObject(f.Class)

	tests := []struct {
		method string
		want   interp.Value
	}{
		{"GetString", "hello"},
		{"GetIntPtr", 0},
		{"GetStringBuilder", nil},
		{"JustMe", obj},
	}
	for _, tt := range tests {
		got, err := m.Send(obj, tt.method)
		if err != nil {
			t.Errorf("%s failed: %v", tt.method, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestNativeBinding(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	obj := m.NewObject(f.Class)

	if _, err := m.Send(obj, "NOOP"); err != nil {
		t.Fatalf("NOOP failed: %v", err)
	}
	if log := fixture.Log(obj); len(log) != 1 || log[0] != "NOOP()" {
		t.Errorf("log = %v, want [NOOP()]", log)
	}
}

func TestCallvirtFromBody(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	obj := m.NewObject(f.Class)

	meth := f.Module.FindMethod(f.Class, "FamilySpawnStopwatch")
	got, err := m.InvokeVirtual(meth.ID, obj)
	if err != nil {
		t.Fatalf("FamilySpawnStopwatch failed: %v", err)
	}
	if got != "stopwatch" {
		t.Errorf("result = %v, want stopwatch", got)
	}
	if log := fixture.Log(obj); len(log) != 1 || log[0] != "SpawnStopwatch()" {
		t.Errorf("log = %v, want [SpawnStopwatch()]", log)
	}
}

func TestVirtualDispatchThroughBaseChain(t *testing.T) {
	f := fixture.New()
	m := f.Machine()

	objectToString := f.Module.FindMethod(f.Object, "ToString")

	class := m.NewObject(f.Class)
	got, err := m.InvokeVirtual(objectToString.ID, class)
	if err != nil {
		t.Fatalf("ToString failed: %v", err)
	}
	if want := "TargetClass instance"; got != want {
		t.Errorf("TargetClass.ToString = %v, want %s", got, want)
	}

	// TargetStruct overrides ValueType.ToString, which overrides
	// Object.ToString.
	st := m.NewObject(f.Struct)
	got, err = m.InvokeVirtual(objectToString.ID, st)
	if err != nil {
		t.Fatalf("ToString failed: %v", err)
	}
	if want := "TargetStruct value"; got != want {
		t.Errorf("TargetStruct.ToString = %v, want %s", got, want)
	}

	// Invoke runs the named method without dispatch.
	got, err = m.Invoke(objectToString.ID, st)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != fixture.StructName {
		t.Errorf("Object.ToString = %v, want %s", got, fixture.StructName)
	}
}

func TestInheritedMethodLookup(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	st := m.NewObject(f.Struct)

	// GetHashCode is declared on System.Object only.
	got, err := m.Send(st, "GetHashCode")
	if err != nil {
		t.Fatalf("GetHashCode failed: %v", err)
	}
	if got != 0 {
		t.Errorf("GetHashCode = %v, want 0", got)
	}
}

func TestNullReceiver(t *testing.T) {
	f := fixture.New()
	m := f.Machine()

	noop := f.Module.FindMethod(f.Class, "NOOP")
	_, err := m.InvokeVirtual(noop.ID, nil)
	if !errors.Is(err, interp.ErrNullReference) {
		t.Errorf("error = %v, want ErrNullReference", err)
	}
	var rtErr *interp.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("error = %T, want *RuntimeError", err)
	}
	if rtErr.Method != "TargetClass::NOOP()" {
		t.Errorf("method = %q, want TargetClass::NOOP()", rtErr.Method)
	}
}

func TestArgumentCount(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	obj := m.NewObject(f.Class)

	tms := f.Module.FindMethod(f.Class, "TryMakeString")
	_, err := m.Invoke(tms.ID, obj, "x")
	if !errors.Is(err, interp.ErrArgumentCount) {
		t.Errorf("error = %v, want ErrArgumentCount", err)
	}
}

func TestMissingImplementation(t *testing.T) {
	f := fixture.New()
	m := f.Machine()
	obj := m.NewObject(f.Class)

	run := f.Module.FindMethod(f.Iface, "Run")
	_, err := m.Invoke(run.ID, obj)
	if !errors.Is(err, interp.ErrNoImplementation) {
		t.Errorf("error = %v, want ErrNoImplementation", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	mod := ir.NewModule("Broken")
	typ := mod.AddType(ir.NewType("", "Broken", ir.CategoryClass))
	meth := ir.NewMethod("Pop", ir.AttrPublic, mod.TypeSystem.Void)
	meth.Body = ir.NewBody()
	meth.Body.Emit(ir.OpPop)
	meth.Body.Emit(ir.OpRet)
	mod.AddMethod(typ, meth)

	m := interp.New(mod)
	_, err := m.Invoke(meth.ID, m.NewObject(typ))
	if !errors.Is(err, interp.ErrStackUnderflow) {
		t.Fatalf("error = %v, want ErrStackUnderflow", err)
	}
	var rtErr *interp.RuntimeError
	if errors.As(err, &rtErr) && rtErr.Offset != 0 {
		t.Errorf("offset = %d, want 0", rtErr.Offset)
	}
}

func TestCallDepth(t *testing.T) {
	mod := ir.NewModule("Recursive")
	typ := mod.AddType(ir.NewType("", "Loop", ir.CategoryClass))
	meth := mod.AddMethod(typ, ir.NewMethod("Forever", ir.AttrPublic, mod.TypeSystem.Void))
	meth.Body = ir.NewBody()
	meth.Body.EmitArg(ir.OpLdarg, 0)
	meth.Body.EmitMethod(ir.OpCall, meth.ID)
	meth.Body.Emit(ir.OpRet)

	m := interp.New(mod)
	m.MaxDepth = 16
	_, err := m.Invoke(meth.ID, m.NewObject(typ))
	if !errors.Is(err, interp.ErrCallDepth) {
		t.Errorf("error = %v, want ErrCallDepth", err)
	}
}
