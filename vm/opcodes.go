package vm

import "fmt"

// Opcode is one byte of JVM bytecode naming an instruction.
type Opcode byte

const (
	// ========================================================================
	// Constants (0x00-0x14)
	// ========================================================================

	OpNop        Opcode = 0x00
	OpAconstNull Opcode = 0x01
	OpIconstM1   Opcode = 0x02
	OpIconst0    Opcode = 0x03
	OpIconst1    Opcode = 0x04
	OpIconst2    Opcode = 0x05
	OpIconst3    Opcode = 0x06
	OpIconst4    Opcode = 0x07
	OpIconst5    Opcode = 0x08
	OpBipush     Opcode = 0x10 // <byte:s8>
	OpSipush     Opcode = 0x11 // <value:s16>
	OpLdc        Opcode = 0x12 // <index:u8>
	OpLdcW       Opcode = 0x13 // <index:u16>

	// ========================================================================
	// Loads (0x15-0x2D)
	// ========================================================================

	OpIload  Opcode = 0x15 // <local:u8>
	OpAload  Opcode = 0x19 // <local:u8>
	OpIload0 Opcode = 0x1A
	OpIload1 Opcode = 0x1B
	OpIload2 Opcode = 0x1C
	OpIload3 Opcode = 0x1D
	OpAload0 Opcode = 0x2A
	OpAload1 Opcode = 0x2B
	OpAload2 Opcode = 0x2C
	OpAload3 Opcode = 0x2D

	// ========================================================================
	// Stores (0x36-0x4E)
	// ========================================================================

	OpIstore  Opcode = 0x36 // <local:u8>
	OpAstore  Opcode = 0x3A // <local:u8>
	OpIstore0 Opcode = 0x3B
	OpIstore1 Opcode = 0x3C
	OpIstore2 Opcode = 0x3D
	OpIstore3 Opcode = 0x3E
	OpAstore0 Opcode = 0x4B
	OpAstore1 Opcode = 0x4C
	OpAstore2 Opcode = 0x4D
	OpAstore3 Opcode = 0x4E

	// ========================================================================
	// Stack manipulation (0x57-0x5F)
	// ========================================================================

	OpPop  Opcode = 0x57
	OpDup  Opcode = 0x59
	OpSwap Opcode = 0x5F

	// ========================================================================
	// Int arithmetic (0x60-0x84)
	// ========================================================================

	OpIadd Opcode = 0x60
	OpIsub Opcode = 0x64
	OpImul Opcode = 0x68
	OpIneg Opcode = 0x74
	OpIinc Opcode = 0x84 // <local:u8> <delta:s8>

	// ========================================================================
	// Control flow (0x99-0xA7), all <offset:s16> relative to the opcode
	// ========================================================================

	OpIfeq     Opcode = 0x99
	OpIfne     Opcode = 0x9A
	OpIflt     Opcode = 0x9B
	OpIfge     Opcode = 0x9C
	OpIfgt     Opcode = 0x9D
	OpIfle     Opcode = 0x9E
	OpIfIcmpeq Opcode = 0x9F
	OpIfIcmpne Opcode = 0xA0
	OpIfIcmplt Opcode = 0xA1
	OpIfIcmpge Opcode = 0xA2
	OpIfIcmpgt Opcode = 0xA3
	OpIfIcmple Opcode = 0xA4
	OpGoto     Opcode = 0xA7

	// ========================================================================
	// Return and invocation (0xAC-0xB8)
	// ========================================================================

	OpIreturn      Opcode = 0xAC
	OpAreturn      Opcode = 0xB0
	OpReturn       Opcode = 0xB1
	OpInvokestatic Opcode = 0xB8 // <methodref:u16>
)

// OpcodeInfo provides metadata about each opcode for decoding and listings.
type OpcodeInfo struct {
	Name       string // JVM mnemonic
	StackPop   int    // values popped (-1 = depends on the method descriptor)
	StackPush  int    // values pushed (-1 = depends on the method descriptor)
	OperandLen int    // operand bytes following the opcode
}

// opcodeInfoTable lists every opcode the engine executes. Anything absent
// fails to decode with ErrUnsupportedOpcode.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Constants
	OpNop:        {"nop", 0, 0, 0},
	OpAconstNull: {"aconst_null", 0, 1, 0},
	OpIconstM1:   {"iconst_m1", 0, 1, 0},
	OpIconst0:    {"iconst_0", 0, 1, 0},
	OpIconst1:    {"iconst_1", 0, 1, 0},
	OpIconst2:    {"iconst_2", 0, 1, 0},
	OpIconst3:    {"iconst_3", 0, 1, 0},
	OpIconst4:    {"iconst_4", 0, 1, 0},
	OpIconst5:    {"iconst_5", 0, 1, 0},
	OpBipush:     {"bipush", 0, 1, 1},
	OpSipush:     {"sipush", 0, 1, 2},
	OpLdc:        {"ldc", 0, 1, 1},
	OpLdcW:       {"ldc_w", 0, 1, 2},

	// Loads
	OpIload:  {"iload", 0, 1, 1},
	OpAload:  {"aload", 0, 1, 1},
	OpIload0: {"iload_0", 0, 1, 0},
	OpIload1: {"iload_1", 0, 1, 0},
	OpIload2: {"iload_2", 0, 1, 0},
	OpIload3: {"iload_3", 0, 1, 0},
	OpAload0: {"aload_0", 0, 1, 0},
	OpAload1: {"aload_1", 0, 1, 0},
	OpAload2: {"aload_2", 0, 1, 0},
	OpAload3: {"aload_3", 0, 1, 0},

	// Stores
	OpIstore:  {"istore", 1, 0, 1},
	OpAstore:  {"astore", 1, 0, 1},
	OpIstore0: {"istore_0", 1, 0, 0},
	OpIstore1: {"istore_1", 1, 0, 0},
	OpIstore2: {"istore_2", 1, 0, 0},
	OpIstore3: {"istore_3", 1, 0, 0},
	OpAstore0: {"astore_0", 1, 0, 0},
	OpAstore1: {"astore_1", 1, 0, 0},
	OpAstore2: {"astore_2", 1, 0, 0},
	OpAstore3: {"astore_3", 1, 0, 0},

	// Stack manipulation
	OpPop:  {"pop", 1, 0, 0},
	OpDup:  {"dup", 1, 2, 0},
	OpSwap: {"swap", 2, 2, 0},

	// Int arithmetic
	OpIadd: {"iadd", 2, 1, 0},
	OpIsub: {"isub", 2, 1, 0},
	OpImul: {"imul", 2, 1, 0},
	OpIneg: {"ineg", 1, 1, 0},
	OpIinc: {"iinc", 0, 0, 2},

	// Control flow
	OpIfeq:     {"ifeq", 1, 0, 2},
	OpIfne:     {"ifne", 1, 0, 2},
	OpIflt:     {"iflt", 1, 0, 2},
	OpIfge:     {"ifge", 1, 0, 2},
	OpIfgt:     {"ifgt", 1, 0, 2},
	OpIfle:     {"ifle", 1, 0, 2},
	OpIfIcmpeq: {"if_icmpeq", 2, 0, 2},
	OpIfIcmpne: {"if_icmpne", 2, 0, 2},
	OpIfIcmplt: {"if_icmplt", 2, 0, 2},
	OpIfIcmpge: {"if_icmpge", 2, 0, 2},
	OpIfIcmpgt: {"if_icmpgt", 2, 0, 2},
	OpIfIcmple: {"if_icmple", 2, 0, 2},
	OpGoto:     {"goto", 0, 0, 2},

	// Return and invocation
	OpIreturn:      {"ireturn", 1, 0, 0},
	OpAreturn:      {"areturn", 1, 0, 0},
	OpReturn:       {"return", 0, 0, 0},
	OpInvokestatic: {"invokestatic", -1, -1, 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "unknown_0xNN" if the opcode is not supported.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown_0x%02X", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Supported reports whether the engine can execute op.
func (op Opcode) Supported() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsBranch returns true for the conditional branches and goto.
func (op Opcode) IsBranch() bool {
	return op >= OpIfeq && op <= OpGoto && op.Supported()
}

// IsReturn returns true if this opcode ends the current frame.
func (op Opcode) IsReturn() bool {
	return op == OpIreturn || op == OpAreturn || op == OpReturn
}

// AllOpcodes returns every supported opcode in ascending order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfoTable))
	for i := 0; i < 256; i++ {
		if op := Opcode(i); op.Supported() {
			ops = append(ops, op)
		}
	}
	return ops
}
