package vm

import (
	"fmt"

	"github.com/chazu/jolt/classfile"
)

// execute applies one decoded instruction to f. The pc moves to the next
// instruction unless the instruction branches or returns.
func (e *Engine) execute(inst Instruction, f *Frame) error {
	next := inst.Next()

	switch op := inst.Op; {
	case op == OpNop:

	case op == OpAconstNull:
		if err := f.Push(Null); err != nil {
			return err
		}

	case op >= OpIconstM1 && op <= OpIconst5, op == OpBipush, op == OpSipush:
		if err := f.Push(IntValue(inst.Operand)); err != nil {
			return err
		}

	case op == OpLdc, op == OpLdcW:
		v, err := f.Class.Pool.Integer(uint16(inst.Operand))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := f.Push(IntValue(v)); err != nil {
			return err
		}

	// Loads and stores
	case op == OpIload, op >= OpIload0 && op <= OpIload3:
		v, err := f.Local(int(inst.Operand))
		if err != nil {
			return err
		}
		if !v.IsInt() {
			return fmt.Errorf("%w: local %d holds %s, want int", ErrOperandKind, inst.Operand, v.Kind)
		}
		if err := f.Push(v); err != nil {
			return err
		}

	case op == OpAload, op >= OpAload0 && op <= OpAload3:
		v, err := f.Local(int(inst.Operand))
		if err != nil {
			return err
		}
		if !v.IsReference() {
			return fmt.Errorf("%w: local %d holds %s, want reference", ErrOperandKind, inst.Operand, v.Kind)
		}
		if err := f.Push(v); err != nil {
			return err
		}

	case op == OpIstore, op >= OpIstore0 && op <= OpIstore3:
		v, err := f.PopInt()
		if err != nil {
			return err
		}
		if err := f.SetLocal(int(inst.Operand), IntValue(v)); err != nil {
			return err
		}

	case op == OpAstore, op >= OpAstore0 && op <= OpAstore3:
		v, err := f.PopReference()
		if err != nil {
			return err
		}
		if err := f.SetLocal(int(inst.Operand), v); err != nil {
			return err
		}

	// Stack manipulation
	case op == OpPop:
		if _, err := f.Pop(); err != nil {
			return err
		}

	case op == OpDup:
		v, err := f.Peek()
		if err != nil {
			return err
		}
		if err := f.Push(v); err != nil {
			return err
		}

	case op == OpSwap:
		a, err := f.Pop()
		if err != nil {
			return err
		}
		b, err := f.Pop()
		if err != nil {
			return err
		}
		f.stack = append(f.stack, a, b)

	// Int arithmetic, wrapping on overflow
	case op == OpIadd, op == OpIsub, op == OpImul:
		b, err := f.PopInt()
		if err != nil {
			return err
		}
		a, err := f.PopInt()
		if err != nil {
			return err
		}
		var r int32
		switch op {
		case OpIadd:
			r = a + b
		case OpIsub:
			r = a - b
		default:
			r = a * b
		}
		if err := f.Push(IntValue(r)); err != nil {
			return err
		}

	case op == OpIneg:
		a, err := f.PopInt()
		if err != nil {
			return err
		}
		if err := f.Push(IntValue(-a)); err != nil {
			return err
		}

	case op == OpIinc:
		v, err := f.Local(int(inst.Operand))
		if err != nil {
			return err
		}
		if !v.IsInt() {
			return fmt.Errorf("%w: local %d holds %s, want int", ErrOperandKind, inst.Operand, v.Kind)
		}
		if err := f.SetLocal(int(inst.Operand), IntValue(v.Int+inst.Delta)); err != nil {
			return err
		}

	// Control flow
	case op >= OpIfeq && op <= OpIfle:
		v, err := f.PopInt()
		if err != nil {
			return err
		}
		if compare(op-OpIfeq, v, 0) {
			next = int(inst.Operand)
		}

	case op >= OpIfIcmpeq && op <= OpIfIcmple:
		b, err := f.PopInt()
		if err != nil {
			return err
		}
		a, err := f.PopInt()
		if err != nil {
			return err
		}
		if compare(op-OpIfIcmpeq, a, b) {
			next = int(inst.Operand)
		}

	case op == OpGoto:
		next = int(inst.Operand)

	// Return and invocation
	case op == OpIreturn:
		v, err := f.PopInt()
		if err != nil {
			return err
		}
		f.setReturn(IntValue(v))
		return nil

	case op == OpAreturn:
		v, err := f.PopReference()
		if err != nil {
			return err
		}
		f.setReturn(v)
		return nil

	case op == OpReturn:
		next = len(f.Code)

	case op == OpInvokestatic:
		return e.invokeStatic(inst, f)

	default:
		// Decodable but not executable means the tables disagree.
		return fmt.Errorf("%w: %s at pc %d", ErrUnsupportedOpcode, op, inst.PC)
	}

	f.PC = next
	return nil
}

// compare evaluates condition c (0=eq 1=ne 2=lt 3=ge 4=gt 5=le), the
// order shared by the if<cond> and if_icmp<cond> families.
func compare(c Opcode, a, b int32) bool {
	switch c {
	case 0:
		return a == b
	case 1:
		return a != b
	case 2:
		return a < b
	case 3:
		return a >= b
	case 4:
		return a > b
	default:
		return a <= b
	}
}

// invokeStatic resolves the Methodref, then moves the arguments from the
// caller's operand stack into a new frame. Every check happens before the
// caller is modified, so a failed call leaves the caller exactly as it was.
func (e *Engine) invokeStatic(inst Instruction, f *Frame) error {
	ref, err := f.Class.Pool.Methodref(uint16(inst.Operand))
	if err != nil {
		return fmt.Errorf("invokestatic: %w", err)
	}
	class, method, attr, err := e.resolve(ref.Class, ref.Name, ref.Descriptor)
	if err != nil {
		return err
	}
	md, err := classfile.ParseMethodDescriptor(ref.Descriptor)
	if err != nil {
		return err
	}

	n := len(md.Params)
	if f.StackDepth() < n {
		return fmt.Errorf("%w: %s takes %d arguments, stack holds %d", ErrStackUnderflow, ref, n, f.StackDepth())
	}
	if len(e.frames) >= e.maxDepth {
		return fmt.Errorf("%w: %d frames calling %s", ErrCallDepth, len(e.frames), ref)
	}
	if md.ParamSlots() > int(attr.MaxLocals) {
		return fmt.Errorf("%w: %s needs %d argument slots, max_locals is %d",
			ErrLocalIndex, ref, md.ParamSlots(), attr.MaxLocals)
	}

	args := append([]Value(nil), f.stack[len(f.stack)-n:]...)
	f.stack = f.stack[:len(f.stack)-n]
	f.PC = inst.Next()
	return e.pushFrame(class, method, attr, args)
}
