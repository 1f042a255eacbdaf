package vm

import (
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded instruction. Operand holds whichever immediate
// the opcode carries, with implied operands made explicit:
//
//	iconst_<n>, bipush, sipush    the int pushed
//	ldc, ldc_w, invokestatic      the constant pool index
//	[ia]load*, [ia]store*, iinc   the local variable index
//	if*, goto                     the absolute branch target
//
// Delta is the increment of iinc and zero otherwise.
type Instruction struct {
	Op      Opcode
	PC      int
	Len     int
	Operand int32
	Delta   int32
}

// Next returns the pc of the following instruction.
func (i Instruction) Next() int {
	return i.PC + i.Len
}

func (i Instruction) String() string {
	switch {
	case i.Op == OpIinc:
		return fmt.Sprintf("%s %d %d", i.Op, i.Operand, i.Delta)
	case i.Op.IsBranch():
		return fmt.Sprintf("%s %04X", i.Op, i.Operand)
	case GetOpcodeInfo(i.Op).OperandLen > 0:
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	}
	return i.Op.String()
}

// DecodeInstruction decodes the instruction starting at code[pc]. It does
// not modify code and depends on nothing else, so the same input always
// yields the same Instruction.
//
// Unsupported opcodes fail with ErrUnsupportedOpcode, immediates running
// past the end of code with ErrTruncatedInstruction, and branch targets
// outside [0, len(code)] with ErrBadBranch.
func DecodeInstruction(code []byte, pc int) (Instruction, error) {
	if pc < 0 || pc >= len(code) {
		return Instruction{}, fmt.Errorf("%w: pc %d outside code of %d bytes",
			ErrTruncatedInstruction, pc, len(code))
	}

	op := Opcode(code[pc])
	info, ok := opcodeInfoTable[op]
	if !ok {
		return Instruction{}, fmt.Errorf("%w: 0x%02X at pc %d", ErrUnsupportedOpcode, byte(op), pc)
	}
	if pc+1+info.OperandLen > len(code) {
		return Instruction{}, fmt.Errorf("%w: %s at pc %d needs %d operand bytes, %d remain",
			ErrTruncatedInstruction, op, pc, info.OperandLen, len(code)-pc-1)
	}

	inst := Instruction{Op: op, PC: pc, Len: 1 + info.OperandLen}
	operands := code[pc+1 : pc+inst.Len]

	switch {
	case op >= OpIconstM1 && op <= OpIconst5:
		inst.Operand = int32(op) - int32(OpIconst0)
	case op == OpBipush:
		inst.Operand = int32(int8(operands[0]))
	case op == OpSipush:
		inst.Operand = int32(int16(binary.BigEndian.Uint16(operands)))
	case op == OpLdc, op == OpIload, op == OpAload, op == OpIstore, op == OpAstore:
		inst.Operand = int32(operands[0])
	case op == OpLdcW, op == OpInvokestatic:
		inst.Operand = int32(binary.BigEndian.Uint16(operands))
	case op >= OpIload0 && op <= OpIload3:
		inst.Operand = int32(op - OpIload0)
	case op >= OpAload0 && op <= OpAload3:
		inst.Operand = int32(op - OpAload0)
	case op >= OpIstore0 && op <= OpIstore3:
		inst.Operand = int32(op - OpIstore0)
	case op >= OpAstore0 && op <= OpAstore3:
		inst.Operand = int32(op - OpAstore0)
	case op == OpIinc:
		inst.Operand = int32(operands[0])
		inst.Delta = int32(int8(operands[1]))
	case op.IsBranch():
		offset := int(int16(binary.BigEndian.Uint16(operands)))
		target := pc + offset
		if target < 0 || target > len(code) {
			return Instruction{}, fmt.Errorf("%w: %s at pc %d jumps to %d, code is %d bytes",
				ErrBadBranch, op, pc, target, len(code))
		}
		inst.Operand = int32(target)
	}
	return inst, nil
}
