package vm

import "fmt"

// Kind tags the contents of a Value.
type Kind uint8

const (
	KindNull Kind = iota // the null reference; also the zero Value
	KindInt
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindRef:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is one operand stack entry or local variable slot.
//
// Only the categories the supported opcodes manipulate are represented:
// 32-bit ints and references. A reference holds an arbitrary Go value; the
// entry point passes its String[] argument as a []string.
type Value struct {
	Kind Kind
	Int  int32
	Ref  any
}

// Null is the null reference.
var Null = Value{}

// IntValue wraps an int.
func IntValue(v int32) Value {
	return Value{Kind: KindInt, Int: v}
}

// RefValue wraps a reference. A nil r gives Null.
func RefValue(r any) Value {
	if r == nil {
		return Null
	}
	return Value{Kind: KindRef, Ref: r}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsInt reports whether v holds an int.
func (v Value) IsInt() bool {
	return v.Kind == KindInt
}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsReference reports whether v may be used where a reference is expected.
// Null counts.
func (v Value) IsReference() bool {
	return v.Kind == KindNull || v.Kind == KindRef
}

// String renders v for traces and diagnostics. The output depends only on
// the value's kind and contents, never on addresses.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	}
	switch r := v.Ref.(type) {
	case []string:
		return fmt.Sprintf("String[%d]", len(r))
	case string:
		return fmt.Sprintf("%q", r)
	default:
		return fmt.Sprintf("ref(%T)", r)
	}
}
