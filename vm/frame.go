package vm

import (
	"fmt"

	"github.com/chazu/jolt/classfile"
)

// ---------------------------------------------------------------------------
// Frame: Execution state for a method invocation
// ---------------------------------------------------------------------------

// Frame is the state of one method invocation. The operand stack and local
// variable array never grow past the bounds declared by the method's Code
// attribute; violations are capacity errors, not silent growth.
type Frame struct {
	Class  *classfile.Class
	Method *classfile.Member
	Code   []byte // private copy of the method's bytecode
	PC     int    // always within [0, len(Code)]

	attr   *classfile.CodeAttribute
	stack  []Value // len is the current depth, cap is max_stack
	locals []Value

	returned  bool
	returnVal Value
}

func newFrame(class *classfile.Class, method *classfile.Member, attr *classfile.CodeAttribute) *Frame {
	return &Frame{
		Class:  class,
		Method: method,
		Code:   append([]byte(nil), attr.Code...),
		attr:   attr,
		stack:  make([]Value, 0, attr.MaxStack),
		locals: make([]Value, attr.MaxLocals),
	}
}

// Done reports whether the pc has reached the end of the code. The engine
// pops such a frame on its next step.
func (f *Frame) Done() bool {
	return f.PC >= len(f.Code)
}

// Name returns "Class.methodDescriptor" for logs and errors.
func (f *Frame) Name() string {
	return f.Class.ThisClass + "." + f.Method.Name + f.Method.Descriptor
}

// Line returns the source line of the current pc, or 0.
func (f *Frame) Line() int {
	return f.attr.LineNumber(f.PC)
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Push pushes v, failing with ErrStackOverflow at max_stack.
func (f *Frame) Push(v Value) error {
	if len(f.stack) >= cap(f.stack) {
		return fmt.Errorf("%w: max_stack is %d", ErrStackOverflow, cap(f.stack))
	}
	f.stack = append(f.stack, v)
	return nil
}

// Pop removes and returns the top value.
func (f *Frame) Pop() (Value, error) {
	n := len(f.stack)
	if n == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v, nil
}

// PopInt pops a value that must be an int.
func (f *Frame) PopInt() (int32, error) {
	v, err := f.Pop()
	if err != nil {
		return 0, err
	}
	if !v.IsInt() {
		return 0, fmt.Errorf("%w: want int, got %s", ErrOperandKind, v.Kind)
	}
	return v.Int, nil
}

// PopReference pops a value that must be a reference or null.
func (f *Frame) PopReference() (Value, error) {
	v, err := f.Pop()
	if err != nil {
		return Value{}, err
	}
	if !v.IsReference() {
		return Value{}, fmt.Errorf("%w: want reference, got %s", ErrOperandKind, v.Kind)
	}
	return v, nil
}

// Peek returns the top value without removing it.
func (f *Frame) Peek() (Value, error) {
	if len(f.stack) == 0 {
		return Value{}, ErrStackUnderflow
	}
	return f.stack[len(f.stack)-1], nil
}

// StackDepth returns the number of values on the operand stack.
func (f *Frame) StackDepth() int {
	return len(f.stack)
}

// Stack returns a copy of the operand stack, bottom first.
func (f *Frame) Stack() []Value {
	return append([]Value(nil), f.stack...)
}

// ---------------------------------------------------------------------------
// Local variables
// ---------------------------------------------------------------------------

// Local returns local variable i.
func (f *Frame) Local(i int) (Value, error) {
	if i < 0 || i >= len(f.locals) {
		return Value{}, fmt.Errorf("%w: %d, max_locals is %d", ErrLocalIndex, i, len(f.locals))
	}
	return f.locals[i], nil
}

// SetLocal stores v in local variable i.
func (f *Frame) SetLocal(i int, v Value) error {
	if i < 0 || i >= len(f.locals) {
		return fmt.Errorf("%w: %d, max_locals is %d", ErrLocalIndex, i, len(f.locals))
	}
	f.locals[i] = v
	return nil
}

// Locals returns a copy of the local variable array.
func (f *Frame) Locals() []Value {
	return append([]Value(nil), f.locals...)
}

// ReturnValue returns the value produced by ireturn or areturn, if the
// frame executed one.
func (f *Frame) ReturnValue() (Value, bool) {
	return f.returnVal, f.returned
}

func (f *Frame) setReturn(v Value) {
	f.returnVal = v
	f.returned = true
	f.PC = len(f.Code)
}

func stackStrings(vs []Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
