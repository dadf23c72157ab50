package ir

import "fmt"

// Opcode represents a single IR instruction.
// Opcodes are grouped into ranges by category.
type Opcode byte

const (
	// ========================================================================
	// Arguments (0x00-0x0F)
	// ========================================================================

	OpNop   Opcode = 0x00 // No operation
	OpLdarg Opcode = 0x01 // Push argument: OpLdarg <index> (0 is the receiver for instance methods)

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpLdnull Opcode = 0x10 // Push null
	OpLdcI4  Opcode = 0x11 // Push integer constant: OpLdcI4 <value>
	OpLdstr  Opcode = 0x12 // Push string constant: OpLdstr <value>

	// ========================================================================
	// Stack manipulation (0x20-0x2F)
	// ========================================================================

	OpPop Opcode = 0x20 // Discard top of stack
	OpDup Opcode = 0x21 // Duplicate top of stack

	// ========================================================================
	// Calls (0x30-0x3F)
	// ========================================================================

	OpCall     Opcode = 0x30 // Direct call: OpCall <method>
	OpCallvirt Opcode = 0x31 // Virtual call with null check: OpCallvirt <method>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpRet Opcode = 0xF0 // Return (top of stack for non-void methods)
)

// OperandKind describes what an instruction's operand holds.
type OperandKind uint8

const (
	OperandNone   OperandKind = iota
	OperandArg                // argument slot index
	OperandInt                // integer constant
	OperandString             // string constant
	OperandMethod             // MethodID
)

// OpcodeInfo provides metadata about each opcode for disassembly and
// stack analysis.
type OpcodeInfo struct {
	Name      string      // Human-readable name
	StackPop  int         // Values popped from the stack (-1 = depends on call target)
	StackPush int         // Values pushed (-1 = depends on call target)
	Operand   OperandKind // Operand carried by the instruction
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:   {"NOP", 0, 0, OperandNone},
	OpLdarg: {"LDARG", 0, 1, OperandArg},

	OpLdnull: {"LDNULL", 0, 1, OperandNone},
	OpLdcI4:  {"LDC_I4", 0, 1, OperandInt},
	OpLdstr:  {"LDSTR", 0, 1, OperandString},

	OpPop: {"POP", 1, 0, OperandNone},
	OpDup: {"DUP", 1, 2, OperandNone},

	OpCall:     {"CALL", -1, -1, OperandMethod},
	OpCallvirt: {"CALLVIRT", -1, -1, OperandMethod},

	OpRet: {"RET", -1, 0, OperandNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an "UNKNOWN" entry for undefined opcodes.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// String returns the opcode name.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsValid reports whether the opcode is defined.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsCall reports whether the opcode invokes a method.
func (op Opcode) IsCall() bool {
	return op == OpCall || op == OpCallvirt
}
