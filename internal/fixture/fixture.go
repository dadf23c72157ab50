// Package fixture builds the target module the weaver is tested against,
// and binds its bodyless methods to Go implementations.
package fixture

import (
	"fmt"
	"strings"

	"github.com/licshee/dutiful/interp"
	"github.com/licshee/dutiful/ir"
)

const (
	ModuleName = "AssemblyToProcess"
	ClassName  = "TargetClass"
	StructName = "TargetStruct"
	EnumName   = "TargetEnum"
	IfaceName  = "ITarget"
	HiddenName = "HiddenClass"
)

// LogField is the object field natively bound methods append their
// signatures to.
const LogField = "log"

var (
	objectRef   = ir.TypeRef{Namespace: "System", Name: "Object"}
	voidRef     = ir.TypeRef{Namespace: "System", Name: "Void"}
	boolRef     = ir.TypeRef{Namespace: "System", Name: "Boolean"}
	intRef      = ir.TypeRef{Namespace: "System", Name: "Int32"}
	stringRef   = ir.TypeRef{Namespace: "System", Name: "String"}
	decimalRef  = ir.TypeRef{Namespace: "System", Name: "Decimal"}
	intPtrRef   = ir.TypeRef{Namespace: "System", Name: "IntPtr"}
	uintPtrRef  = ir.TypeRef{Namespace: "System", Name: "UIntPtr"}
	builderRef  = ir.TypeRef{Namespace: "System.Text", Name: "StringBuilder"}
	stopRef     = ir.TypeRef{Namespace: "System.Diagnostics", Name: "Stopwatch"}
	obsoleteRef = ir.TypeRef{Namespace: "System", Name: "ObsoleteAttribute"}
)

const (
	public    = ir.AttrPublic | ir.AttrHideBySig
	virtual   = public | ir.AttrVirtual | ir.AttrNewSlot
	override  = public | ir.AttrVirtual
	family    = ir.AttrFamily | ir.AttrHideBySig
	famOrAsm  = ir.AttrFamORAssem | ir.AttrHideBySig
	private   = ir.AttrPrivate | ir.AttrHideBySig
	assembly  = ir.AttrAssembly | ir.AttrHideBySig
	famAndAsm = ir.AttrFamANDAssem | ir.AttrHideBySig
	accessor  = public | ir.AttrSpecialName
)

// builder wires methods into a module while tracking Go implementations.
type builder struct {
	mod     *ir.Module
	natives map[string]interp.NativeFunc
}

func (b *builder) method(t *ir.Type, m *ir.Method, body *ir.Body) *ir.Method {
	m.Body = body
	b.mod.AddMethod(t, m)
	if body != nil {
		depth, err := b.mod.AnalyzeStack(m)
		if err != nil {
			panic(err)
		}
		body.MaxStack = depth
	}
	return m
}

func (b *builder) native(t *ir.Type, m *ir.Method, fn interp.NativeFunc) *ir.Method {
	b.mod.AddMethod(t, m)
	b.natives[b.mod.QualifiedName(m)] = fn
	return m
}

func param(name string, typ ir.TypeRef) *ir.Parameter {
	return &ir.Parameter{Name: name, Type: typ}
}

func out(name string, typ ir.TypeRef) *ir.Parameter {
	return &ir.Parameter{Name: name, Type: typ, ByRef: true}
}

func body(emit func(b *ir.Body)) *ir.Body {
	b := ir.NewBody()
	emit(b)
	return b
}

func returnVoid() *ir.Body {
	return body(func(b *ir.Body) { b.Emit(ir.OpRet) })
}

// Fixture is a freshly built target module plus its native bindings.
type Fixture struct {
	Module *ir.Module

	Object *ir.Type
	Value  *ir.Type
	Class  *ir.Type
	Struct *ir.Type
	Enum   *ir.Type
	Iface  *ir.Type
	Hidden *ir.Type

	natives map[string]interp.NativeFunc
}

// New builds the target module. Every call returns an independent module.
func New() *Fixture {
	b := &builder{mod: ir.NewModule(ModuleName), natives: make(map[string]interp.NativeFunc)}
	f := &Fixture{Module: b.mod, natives: b.natives}

	f.Object = f.buildObject(b)
	f.Value = f.buildValueType(b)
	f.Class = f.buildClass(b)
	f.Struct = f.buildStruct(b)
	f.Enum = f.buildEnum(b)
	f.Iface = f.buildInterface(b)
	f.Hidden = f.buildHidden(b)
	return f
}

// Machine returns an interpreter over the fixture module with all native
// methods bound.
func (f *Fixture) Machine() *interp.Machine {
	m := interp.New(f.Module)
	f.Bind(m)
	return m
}

// Bind installs the native implementations on m. Methods are matched by
// qualified name, so Bind also works on a module decoded from an image of
// the fixture.
func (f *Fixture) Bind(m *interp.Machine) {
	mod := m.Module()
	for _, t := range mod.AllTypes() {
		for _, meth := range mod.MethodsOf(t) {
			if fn, ok := f.natives[mod.QualifiedName(meth)]; ok {
				m.Bind(meth.ID, fn)
			}
		}
	}
}

// Log returns the signatures recorded on obj by native methods.
func Log(obj *interp.Object) []string {
	log, _ := obj.Fields[LogField].([]string)
	return log
}

func record(args []interp.Value, sig string) *interp.Object {
	obj := args[0].(*interp.Object)
	obj.Fields[LogField] = append(Log(obj), sig)
	return obj
}

// recorder returns a native method that logs sig and returns result.
func recorder(sig string, result interp.Value) interp.NativeFunc {
	return func(_ *interp.Machine, args []interp.Value) (interp.Value, error) {
		record(args, sig)
		return result, nil
	}
}

// ---------------------------------------------------------------------------
// Core library stand-ins
// ---------------------------------------------------------------------------

func (f *Fixture) buildObject(b *builder) *ir.Type {
	t := ir.NewType("System", "Object", ir.CategoryClass)
	t.Imported = true
	b.mod.AddType(t)

	b.native(t, ir.NewMethod("Equals", virtual, boolRef, param("obj", objectRef)),
		func(_ *interp.Machine, args []interp.Value) (interp.Value, error) {
			record(args, "Equals(System.Object)")
			return args[0] == args[1], nil
		})
	b.native(t, ir.NewMethod("ToString", virtual, stringRef),
		func(m *interp.Machine, args []interp.Value) (interp.Value, error) {
			obj := record(args, "ToString()")
			return m.Module().Type(obj.Type).FullName(), nil
		})
	b.native(t, ir.NewMethod("GetHashCode", virtual, intRef), recorder("GetHashCode()", 0))
	b.method(t, &ir.Method{
		Name:          ".ctor",
		Attributes:    public | ir.AttrSpecialName,
		Kind:          ir.KindConstructor,
		ReturnType:    voidRef,
		DeclaringType: ir.NoType,
		BaseMethod:    ir.NoMethod,
	}, returnVoid())
	return t
}

func (f *Fixture) buildValueType(b *builder) *ir.Type {
	t := ir.NewType("System", "ValueType", ir.CategoryClass)
	t.Imported = true
	t.BaseType = f.Object.ID
	b.mod.AddType(t)

	eq := b.native(t, ir.NewMethod("Equals", override, boolRef, param("obj", objectRef)),
		func(_ *interp.Machine, args []interp.Value) (interp.Value, error) {
			record(args, "Equals(System.Object)")
			return args[0] == args[1], nil
		})
	eq.BaseMethod = b.mod.FindMethod(f.Object, "Equals").ID

	ts := b.native(t, ir.NewMethod("ToString", override, stringRef),
		func(m *interp.Machine, args []interp.Value) (interp.Value, error) {
			obj := record(args, "ToString()")
			return m.Module().Type(obj.Type).FullName(), nil
		})
	ts.BaseMethod = b.mod.FindMethod(f.Object, "ToString").ID
	return t
}

// ---------------------------------------------------------------------------
// Module types
// ---------------------------------------------------------------------------

// tryMakeString formats like the composite format of the host library,
// with argument slots {0}="{", {1}="}", {2}=arg2, {3}=the receiver's type,
// {4}=arg3.
func tryMakeString(sig string) interp.NativeFunc {
	return func(m *interp.Machine, args []interp.Value) (interp.Value, error) {
		obj := record(args, sig)
		format, _ := args[1].(string)
		result, ok := args[4].(*interp.Ref)
		if !ok {
			return nil, fmt.Errorf("%s: result is not a reference", sig)
		}
		r := strings.NewReplacer(
			"{0}", "{",
			"{1}", "}",
			"{2}", fmt.Sprint(args[2]),
			"{3}", m.Module().Type(obj.Type).FullName(),
			"{4}", fmt.Sprint(args[3]),
		)
		result.Value = r.Replace(format)
		return true, nil
	}
}

func tryMakeStringMethod() *ir.Method {
	return ir.NewMethod("TryMakeString", public, boolRef,
		param("format", stringRef),
		param("arg2", decimalRef),
		param("arg3", intPtrRef),
		out("result", stringRef),
	)
}

const tryMakeStringSig = "TryMakeString(System.String, System.Decimal, System.IntPtr, System.String&)"

func (f *Fixture) buildClass(b *builder) *ir.Type {
	t := ir.NewType("", ClassName, ir.CategoryClass)
	t.BaseType = f.Object.ID
	b.mod.AddType(t)
	self := t.Ref()

	b.method(t, &ir.Method{
		Name:          ".ctor",
		Attributes:    public | ir.AttrSpecialName,
		Kind:          ir.KindConstructor,
		ReturnType:    voidRef,
		DeclaringType: ir.NoType,
		BaseMethod:    ir.NoMethod,
	}, returnVoid())

	b.native(t, ir.NewMethod("NOOP", public, voidRef), recorder("NOOP()", nil))

	b.method(t, ir.NewMethod("JustMe", public, self), body(func(b *ir.Body) {
		b.EmitArg(ir.OpLdarg, 0)
		b.Emit(ir.OpRet)
	}))

	spawn := ir.NewMethod("SpawnStopwatch", virtual, stopRef)
	spawn.CustomAttributes = []*ir.CustomAttribute{{Type: obsoleteRef}}
	b.native(t, spawn, recorder("SpawnStopwatch()", "stopwatch"))

	b.native(t, tryMakeStringMethod(), tryMakeString(tryMakeStringSig))

	// Protected members forward to SpawnStopwatch through CALLVIRT.
	forward := func(b *ir.Body) {
		b.EmitArg(ir.OpLdarg, 0)
		b.EmitMethod(ir.OpCallvirt, spawn.ID)
		b.Emit(ir.OpRet)
	}
	b.method(t, ir.NewMethod("FamilySpawnStopwatch", family, stopRef), body(forward))
	b.method(t, ir.NewMethod("FamilyOrAssemblySpawnStopwatch", famOrAsm, stopRef), body(forward))

	b.native(t, ir.NewMethod("PrivateNOOP", private, voidRef), recorder("PrivateNOOP()", nil))
	b.native(t, ir.NewMethod("AssemblyNOOP", assembly, voidRef), recorder("AssemblyNOOP()", nil))
	b.native(t, ir.NewMethod("FamilyAndAssemblyNOOP", famAndAsm, voidRef), recorder("FamilyAndAssemblyNOOP()", nil))

	b.method(t, ir.NewMethod("GetIntPtr", public, intPtrRef), body(func(b *ir.Body) {
		b.EmitInt(ir.OpLdcI4, 0)
		b.Emit(ir.OpRet)
	}))
	b.method(t, ir.NewMethod("GetUIntPtr", public, uintPtrRef), body(func(b *ir.Body) {
		b.EmitInt(ir.OpLdcI4, 0)
		b.Emit(ir.OpRet)
	}))
	b.method(t, ir.NewMethod("GetStringBuilder", public, builderRef), body(func(b *ir.Body) {
		b.Emit(ir.OpLdnull)
		b.Emit(ir.OpRet)
	}))
	b.method(t, ir.NewMethod("GetString", public, stringRef), body(func(b *ir.Body) {
		b.EmitString(ir.OpLdstr, "hello")
		b.Emit(ir.OpRet)
	}))

	b.native(t, ir.NewMethod("GetTaskStatic", public|ir.AttrStatic, voidRef),
		func(*interp.Machine, []interp.Value) (interp.Value, error) { return nil, nil })

	getter := ir.NewMethod("get_Name", accessor, stringRef)
	getter.Kind = ir.KindGetter
	b.method(t, getter, body(func(b *ir.Body) {
		b.EmitString(ir.OpLdstr, ClassName)
		b.Emit(ir.OpRet)
	}))
	setter := ir.NewMethod("set_Name", accessor, voidRef, param("value", stringRef))
	setter.Kind = ir.KindSetter
	b.method(t, setter, returnVoid())
	adder := ir.NewMethod("add_Changed", accessor, voidRef, param("value", objectRef))
	adder.Kind = ir.KindAdder
	b.method(t, adder, returnVoid())
	remover := ir.NewMethod("remove_Changed", accessor, voidRef, param("value", objectRef))
	remover.Kind = ir.KindRemover
	b.method(t, remover, returnVoid())

	// Overrides of System.Object members.
	ts := b.native(t, ir.NewMethod("ToString", override, stringRef), recorder("ToString()", ClassName+" instance"))
	ts.BaseMethod = b.mod.FindMethod(f.Object, "ToString").ID
	hc := b.native(t, ir.NewMethod("GetHashCode", override, intRef), recorder("GetHashCode()", 233))
	hc.BaseMethod = b.mod.FindMethod(f.Object, "GetHashCode").ID

	return t
}

func (f *Fixture) buildStruct(b *builder) *ir.Type {
	t := ir.NewType("", StructName, ir.CategoryStruct)
	t.BaseType = f.Value.ID
	b.mod.AddType(t)

	b.native(t, ir.NewMethod("NOOP", public, voidRef), recorder("NOOP()", nil))
	b.native(t, ir.NewMethod("No", public, voidRef), recorder("No()", nil))
	b.native(t, ir.NewMethod("DontWrapThis", public, objectRef, param("obj", objectRef)),
		func(_ *interp.Machine, args []interp.Value) (interp.Value, error) {
			record(args, "DontWrapThis(System.Object)")
			return args[1], nil
		})
	b.native(t, ir.NewMethod("No_Thanks", public, voidRef), recorder("No_Thanks()", nil))
	b.native(t, ir.NewMethod("NoDutiful", public, voidRef), recorder("NoDutiful()", nil))
	b.native(t, ir.NewMethod("NoopNoDutiful", public, voidRef), recorder("NoopNoDutiful()", nil))
	b.native(t, ir.NewMethod("NoDutifulNoop", public, voidRef), recorder("NoDutifulNoop()", nil))
	b.native(t, tryMakeStringMethod(), tryMakeString(tryMakeStringSig))

	// Overrides through System.ValueType.
	ts := b.native(t, ir.NewMethod("ToString", override, stringRef), recorder("ToString()", StructName+" value"))
	ts.BaseMethod = b.mod.FindMethod(f.Value, "ToString").ID
	eq := b.native(t, ir.NewMethod("Equals", override, boolRef, param("obj", objectRef)),
		func(_ *interp.Machine, args []interp.Value) (interp.Value, error) {
			record(args, "Equals(System.Object)")
			return args[0] == args[1], nil
		})
	eq.BaseMethod = b.mod.FindMethod(f.Value, "Equals").ID

	return t
}

func (f *Fixture) buildEnum(b *builder) *ir.Type {
	t := ir.NewType("", EnumName, ir.CategoryEnum)
	t.BaseType = f.Value.ID
	b.mod.AddType(t)
	b.native(t, ir.NewMethod("Describe", public, voidRef), recorder("Describe()", nil))
	return t
}

func (f *Fixture) buildInterface(b *builder) *ir.Type {
	t := ir.NewType("", IfaceName, ir.CategoryInterface)
	b.mod.AddType(t)
	b.mod.AddMethod(t, ir.NewMethod("Run", public|ir.AttrVirtual|ir.AttrAbstract|ir.AttrNewSlot, voidRef))
	return t
}

func (f *Fixture) buildHidden(b *builder) *ir.Type {
	t := ir.NewType("", HiddenName, ir.CategoryClass)
	t.Public = false
	t.BaseType = f.Object.ID
	b.mod.AddType(t)
	b.native(t, ir.NewMethod("NOOP", public, voidRef), recorder("NOOP()", nil))
	return t
}
