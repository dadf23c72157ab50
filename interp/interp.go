// Package interp executes IR method bodies. It exists so that woven
// modules can be exercised directly: fixture methods are bound to Go
// functions, synthesized methods run from their instruction streams.
package interp

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/licshee/dutiful/ir"
)

// Value is any runtime value. Instances of module types are *Object;
// by-reference arguments are *Ref.
type Value any

// Object is an instance of a module type. Instances are always handled by
// reference, including instances of struct types.
type Object struct {
	Type   ir.TypeID
	Fields map[string]Value
}

// Ref is a by-reference argument cell.
type Ref struct {
	Value Value
}

// NativeFunc implements a method in Go. For instance methods args[0] is the
// receiver.
type NativeFunc func(m *Machine, args []Value) (Value, error)

var (
	ErrNullReference    = errors.New("null reference")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrNoImplementation = errors.New("method has no body and no native binding")
	ErrArgumentCount    = errors.New("wrong number of arguments")
	ErrCallDepth        = errors.New("call depth exceeded")
	ErrMethodNotFound   = errors.New("method not found")
)

// RuntimeError locates a failure inside a method body.
type RuntimeError struct {
	Method string // qualified method name
	Offset int    // instruction index, -1 at method entry
	Err    error
}

func (e *RuntimeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("%s [%04X]: %v", e.Method, e.Offset, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// DefaultMaxDepth bounds nested calls.
const DefaultMaxDepth = 256

// Machine executes methods of one module. A Machine is not safe for
// concurrent use.
type Machine struct {
	mod     *ir.Module
	natives map[ir.MethodID]NativeFunc
	depth   int
	log     commonlog.Logger

	// MaxDepth bounds nested calls.
	MaxDepth int

	// Trace logs every executed instruction at debug level.
	Trace bool
}

// New creates a machine for mod.
func New(mod *ir.Module) *Machine {
	return &Machine{
		mod:      mod,
		natives:  make(map[ir.MethodID]NativeFunc),
		log:      commonlog.GetLogger("dutiful.interp"),
		MaxDepth: DefaultMaxDepth,
	}
}

// Module returns the module being executed.
func (m *Machine) Module() *ir.Module {
	return m.mod
}

// Bind implements a method natively. A native binding takes precedence
// over the method's body.
func (m *Machine) Bind(id ir.MethodID, fn NativeFunc) {
	m.natives[id] = fn
}

// NewObject allocates an instance of t.
func (m *Machine) NewObject(t *ir.Type) *Object {
	return &Object{Type: t.ID, Fields: make(map[string]Value)}
}

// Invoke calls a method directly, without virtual dispatch.
func (m *Machine) Invoke(id ir.MethodID, args ...Value) (Value, error) {
	meth := m.mod.Method(id)
	if meth == nil {
		return nil, fmt.Errorf("%w: %d", ErrMethodNotFound, id)
	}
	return m.call(meth, args)
}

// InvokeVirtual calls a method the way CALLVIRT does: the receiver in
// args[0] must be non-null and selects the override that runs.
func (m *Machine) InvokeVirtual(id ir.MethodID, args ...Value) (Value, error) {
	meth := m.mod.Method(id)
	if meth == nil {
		return nil, fmt.Errorf("%w: %d", ErrMethodNotFound, id)
	}
	target, err := m.dispatch(meth, args)
	if err != nil {
		return nil, &RuntimeError{Method: m.mod.QualifiedName(meth), Offset: -1, Err: err}
	}
	return m.call(target, args)
}

// Send looks up an instance method by name and argument count on the
// receiver's type and its base types, then calls it virtually.
func (m *Machine) Send(recv *Object, name string, args ...Value) (Value, error) {
	if recv == nil {
		return nil, ErrNullReference
	}
	meth := m.Lookup(m.mod.Type(recv.Type), name, len(args))
	if meth == nil {
		return nil, fmt.Errorf("%w: %s with %d arguments", ErrMethodNotFound, name, len(args))
	}
	return m.InvokeVirtual(meth.ID, append([]Value{recv}, args...)...)
}

// Lookup finds an instance method by name and parameter count, searching t
// and then its base types.
func (m *Machine) Lookup(t *ir.Type, name string, argc int) *ir.Method {
	for ; t != nil; t = m.mod.BaseTypeOf(t) {
		for _, meth := range m.mod.MethodsOf(t) {
			if meth.Name == name && meth.HasThis() && len(meth.Parameters) == argc {
				return meth
			}
		}
	}
	return nil
}

// dispatch selects the implementation of target for the receiver in
// args[0].
func (m *Machine) dispatch(target *ir.Method, args []Value) (*ir.Method, error) {
	if len(args) == 0 {
		return nil, ErrArgumentCount
	}
	if args[0] == nil {
		return nil, ErrNullReference
	}
	if !target.IsVirtual() {
		return target, nil
	}
	recv, ok := args[0].(*Object)
	if !ok {
		return target, nil
	}
	for t := m.mod.Type(recv.Type); t != nil; t = m.mod.BaseTypeOf(t) {
		for _, meth := range m.mod.MethodsOf(t) {
			if m.mod.Overrides(meth, target) {
				return meth, nil
			}
		}
	}
	return target, nil
}

// call runs meth with fully prepared arguments.
func (m *Machine) call(meth *ir.Method, args []Value) (Value, error) {
	name := m.mod.QualifiedName(meth)
	if len(args) != meth.ArgCount() {
		return nil, &RuntimeError{Method: name, Offset: -1,
			Err: fmt.Errorf("%w: got %d, want %d", ErrArgumentCount, len(args), meth.ArgCount())}
	}
	if m.depth >= m.MaxDepth {
		return nil, &RuntimeError{Method: name, Offset: -1, Err: ErrCallDepth}
	}
	m.depth++
	defer func() { m.depth-- }()

	if fn, ok := m.natives[meth.ID]; ok {
		return fn(m, args)
	}
	if meth.Body == nil {
		return nil, &RuntimeError{Method: name, Offset: -1, Err: ErrNoImplementation}
	}
	return m.run(meth, name, args)
}

// run is the main execution loop.
func (m *Machine) run(meth *ir.Method, name string, args []Value) (Value, error) {
	stack := make([]Value, 0, meth.Body.MaxStack)
	fail := func(offset int, err error) (Value, error) {
		return nil, &RuntimeError{Method: name, Offset: offset, Err: err}
	}

	for ip, in := range meth.Body.Instructions {
		if m.Trace {
			m.log.Debugf("[%04x] %-10s sp=%d", ip, in.Op, len(stack))
		}

		switch in.Op {
		case ir.OpNop:

		case ir.OpLdarg:
			if in.Int < 0 || in.Int >= len(args) {
				return fail(ip, fmt.Errorf("argument slot %d out of range", in.Int))
			}
			stack = append(stack, args[in.Int])

		case ir.OpLdnull:
			stack = append(stack, nil)

		case ir.OpLdcI4:
			stack = append(stack, in.Int)

		case ir.OpLdstr:
			stack = append(stack, in.Str)

		case ir.OpPop:
			if len(stack) == 0 {
				return fail(ip, ErrStackUnderflow)
			}
			stack = stack[:len(stack)-1]

		case ir.OpDup:
			if len(stack) == 0 {
				return fail(ip, ErrStackUnderflow)
			}
			stack = append(stack, stack[len(stack)-1])

		case ir.OpCall, ir.OpCallvirt:
			target := m.mod.Method(in.Method)
			if target == nil {
				return fail(ip, fmt.Errorf("%w: %d", ErrMethodNotFound, in.Method))
			}
			pop, push := m.mod.CallEffect(target)
			if len(stack) < pop {
				return fail(ip, ErrStackUnderflow)
			}
			callArgs := make([]Value, pop)
			copy(callArgs, stack[len(stack)-pop:])
			stack = stack[:len(stack)-pop]

			if in.Op == ir.OpCallvirt {
				impl, err := m.dispatch(target, callArgs)
				if err != nil {
					return fail(ip, err)
				}
				target = impl
			}
			result, err := m.call(target, callArgs)
			if err != nil {
				return nil, err
			}
			if push > 0 {
				stack = append(stack, result)
			}

		case ir.OpRet:
			if m.mod.IsVoid(meth.ReturnType) {
				return nil, nil
			}
			if len(stack) == 0 {
				return fail(ip, ErrStackUnderflow)
			}
			return stack[len(stack)-1], nil

		default:
			return fail(ip, fmt.Errorf("unknown opcode 0x%02X", byte(in.Op)))
		}
	}

	return fail(len(meth.Body.Instructions), errors.New("fell off the end of the body"))
}
