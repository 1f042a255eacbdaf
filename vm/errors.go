package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/jolt/classfile"
)

// ---------------------------------------------------------------------------
// Error Types
// ---------------------------------------------------------------------------

// ErrCapacity is the category of every bound violation: operand stack,
// local variable array and call depth.
var ErrCapacity = errors.New("capacity exceeded")

var (
	ErrStackOverflow  = fmt.Errorf("%w: operand stack overflow", ErrCapacity)
	ErrStackUnderflow = fmt.Errorf("%w: operand stack underflow", ErrCapacity)
	ErrLocalIndex     = fmt.Errorf("%w: local variable index out of range", ErrCapacity)
	ErrCallDepth      = fmt.Errorf("%w: call depth exceeded", ErrCapacity)
)

// Malformed bytecode is a format error, like malformed class data.
var (
	ErrUnsupportedOpcode    = fmt.Errorf("%w: unsupported opcode", classfile.ErrFormat)
	ErrTruncatedInstruction = fmt.Errorf("%w: truncated instruction", classfile.ErrFormat)
	ErrBadBranch            = fmt.Errorf("%w: branch target out of range", classfile.ErrFormat)
	ErrOperandKind          = fmt.Errorf("%w: operand kind mismatch", classfile.ErrFormat)
)

// Lookup failures are resolution errors, like bad constant pool references.
var (
	ErrClassNotFound  = fmt.Errorf("%w: class not found", classfile.ErrResolution)
	ErrMethodNotFound = fmt.Errorf("%w: method not found", classfile.ErrResolution)
)

// ErrArgument reports an entry point argument that does not fit the
// entry method's parameter types.
var ErrArgument = errors.New("invalid entry argument")

// ExecError records where execution stopped. Err is the underlying cause
// and keeps its category for errors.Is.
type ExecError struct {
	Class  string // binary name of the executing class
	Method string // name and descriptor
	PC     int
	Line   int // source line, 0 if unknown
	Err    error
}

func (e *ExecError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s.%s pc %d (line %d): %v", e.Class, e.Method, e.PC, e.Line, e.Err)
	}
	return fmt.Sprintf("%s.%s pc %d: %v", e.Class, e.Method, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
