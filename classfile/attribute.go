package classfile

import "fmt"

// Attribute names understood by the decoder.
const (
	AttrConstantValue      = "ConstantValue"
	AttrCode               = "Code"
	AttrLineNumberTable    = "LineNumberTable"
	AttrSourceFile         = "SourceFile"
	AttrLocalVariableTable = "LocalVariableTable"
)

// Attribute is a decoded attribute. The set of implementations is closed;
// attributes with unrecognized names decode to *UnknownAttribute.
type Attribute interface {
	Name() string
	attribute()
}

// ConstantValueAttribute gives the initial value of a static field.
type ConstantValueAttribute struct {
	ValueIndex uint16
}

// CodeAttribute holds the bytecode of one method.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// ExceptionHandler is one exception_table record. Handlers are decoded but
// not acted on by the engine.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 catches everything
}

type LineNumberTableAttribute struct {
	Entries []LineNumber
}

type LineNumber struct {
	StartPC uint16
	Line    uint16
}

type SourceFileAttribute struct {
	SourceFile string
}

type LocalVariableTableAttribute struct {
	Entries []LocalVariable
}

type LocalVariable struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

// UnknownAttribute keeps the raw body of an attribute the decoder skipped.
type UnknownAttribute struct {
	AttrName string
	Info     []byte
}

func (*ConstantValueAttribute) Name() string      { return AttrConstantValue }
func (*CodeAttribute) Name() string               { return AttrCode }
func (*LineNumberTableAttribute) Name() string    { return AttrLineNumberTable }
func (*SourceFileAttribute) Name() string         { return AttrSourceFile }
func (*LocalVariableTableAttribute) Name() string { return AttrLocalVariableTable }
func (a *UnknownAttribute) Name() string          { return a.AttrName }

func (*ConstantValueAttribute) attribute()      {}
func (*CodeAttribute) attribute()               {}
func (*LineNumberTableAttribute) attribute()    {}
func (*SourceFileAttribute) attribute()         {}
func (*LocalVariableTableAttribute) attribute() {}
func (*UnknownAttribute) attribute()            {}

// LineNumber maps a bytecode offset to a source line using the nested
// LineNumberTable, if any. It returns 0 when no entry covers pc.
func (c *CodeAttribute) LineNumber(pc int) int {
	line := 0
	best := -1
	for _, a := range c.Attributes {
		lnt, ok := a.(*LineNumberTableAttribute)
		if !ok {
			continue
		}
		for _, e := range lnt.Entries {
			if int(e.StartPC) <= pc && int(e.StartPC) > best {
				best = int(e.StartPC)
				line = int(e.Line)
			}
		}
	}
	return line
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeAttribute reads one attribute. The name is resolved through pool
// and selects the body layout. The body must consume exactly the declared
// attribute_length.
func DecodeAttribute(r *Reader, pool ConstantPool) (Attribute, error) {
	nameIndex, err := r.U16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return nil, fmt.Errorf("attribute name at offset %d: %w", r.Offset()-2, err)
	}
	length, err := r.U32()
	if err != nil {
		return nil, err
	}
	body, err := r.sub(int(length))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}

	var attr Attribute
	switch name {
	case AttrConstantValue:
		attr, err = decodeConstantValue(body)
	case AttrCode:
		attr, err = decodeCode(body, pool)
	case AttrLineNumberTable:
		attr, err = decodeLineNumberTable(body)
	case AttrSourceFile:
		attr, err = decodeSourceFile(body, pool)
	case AttrLocalVariableTable:
		attr, err = decodeLocalVariableTable(body, pool)
	default:
		info, err := body.Bytes(body.Remaining())
		if err != nil {
			return nil, err
		}
		return &UnknownAttribute{AttrName: name, Info: info}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}
	if body.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %s declares %d bytes, %d unread at offset %d",
			ErrAttributeLength, name, length, body.Remaining(), body.Offset())
	}
	return attr, nil
}

// DecodeAttributes reads a u2 count followed by that many attributes.
func DecodeAttributes(r *Reader, pool ConstantPool) ([]Attribute, error) {
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := DecodeAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func decodeConstantValue(r *Reader) (Attribute, error) {
	idx, err := r.U16()
	if err != nil {
		return nil, err
	}
	return &ConstantValueAttribute{ValueIndex: idx}, nil
}

func decodeCode(r *Reader, pool ConstantPool) (Attribute, error) {
	c := &CodeAttribute{}
	var err error
	if c.MaxStack, err = r.U16(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.U16(); err != nil {
		return nil, err
	}
	codeLen, err := r.U32()
	if err != nil {
		return nil, err
	}
	if c.Code, err = r.Bytes(int(codeLen)); err != nil {
		return nil, err
	}

	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.ExceptionTable = make([]ExceptionHandler, n)
	for i := range c.ExceptionTable {
		h := &c.ExceptionTable[i]
		for _, f := range []*uint16{&h.StartPC, &h.EndPC, &h.HandlerPC, &h.CatchType} {
			if *f, err = r.U16(); err != nil {
				return nil, err
			}
		}
	}

	if c.Attributes, err = DecodeAttributes(r, pool); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeLineNumberTable(r *Reader) (Attribute, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	a := &LineNumberTableAttribute{Entries: make([]LineNumber, n)}
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.StartPC, err = r.U16(); err != nil {
			return nil, err
		}
		if e.Line, err = r.U16(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func decodeSourceFile(r *Reader, pool ConstantPool) (Attribute, error) {
	idx, err := r.U16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(idx)
	if err != nil {
		return nil, err
	}
	return &SourceFileAttribute{SourceFile: name}, nil
}

func decodeLocalVariableTable(r *Reader, pool ConstantPool) (Attribute, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	a := &LocalVariableTableAttribute{Entries: make([]LocalVariable, n)}
	for i := range a.Entries {
		e := &a.Entries[i]
		var nameIdx, descIdx uint16
		for _, f := range []*uint16{&e.StartPC, &e.Length, &nameIdx, &descIdx, &e.Index} {
			if *f, err = r.U16(); err != nil {
				return nil, err
			}
		}
		if e.Name, err = pool.Utf8(nameIdx); err != nil {
			return nil, fmt.Errorf("local variable %d name: %w", i, err)
		}
		if e.Descriptor, err = pool.Utf8(descIdx); err != nil {
			return nil, fmt.Errorf("local variable %d descriptor: %w", i, err)
		}
	}
	return a, nil
}
