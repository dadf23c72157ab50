package ir

// Instruction is a single IR instruction. Which operand field is meaningful
// depends on the opcode's OperandKind.
type Instruction struct {
	Op     Opcode   `cbor:"1,keyasint"`
	Int    int      `cbor:"2,keyasint,omitempty"` // argument index or integer constant
	Str    string   `cbor:"3,keyasint,omitempty"` // string constant
	Method MethodID `cbor:"4,keyasint,omitempty"` // call target
}

// Body is a method body: a flat instruction sequence with no branches.
type Body struct {
	Instructions []Instruction `cbor:"1,keyasint"`
	MaxStack     int           `cbor:"2,keyasint"`
}

// NewBody creates an empty body.
func NewBody() *Body {
	return &Body{Instructions: make([]Instruction, 0, 8)}
}

// Emit appends an instruction without an operand and returns its index.
func (b *Body) Emit(op Opcode) int {
	return b.append(Instruction{Op: op})
}

// EmitArg appends an argument-slot instruction.
func (b *Body) EmitArg(op Opcode, index int) int {
	return b.append(Instruction{Op: op, Int: index})
}

// EmitInt appends an integer-constant instruction.
func (b *Body) EmitInt(op Opcode, value int) int {
	return b.append(Instruction{Op: op, Int: value})
}

// EmitString appends a string-constant instruction.
func (b *Body) EmitString(op Opcode, value string) int {
	return b.append(Instruction{Op: op, Str: value})
}

// EmitMethod appends a call instruction targeting method.
func (b *Body) EmitMethod(op Opcode, method MethodID) int {
	return b.append(Instruction{Op: op, Method: method})
}

func (b *Body) append(in Instruction) int {
	offset := len(b.Instructions)
	b.Instructions = append(b.Instructions, in)
	return offset
}

// Len returns the number of instructions.
func (b *Body) Len() int {
	return len(b.Instructions)
}

// Opcodes returns the opcode sequence.
func (b *Body) Opcodes() []Opcode {
	ops := make([]Opcode, len(b.Instructions))
	for i, in := range b.Instructions {
		ops[i] = in.Op
	}
	return ops
}
