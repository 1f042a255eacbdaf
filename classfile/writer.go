package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates big-endian values. It is the inverse of Reader and is
// used to re-encode constants and to assemble class files in tests.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// U8 appends one byte.
func (w *Writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// Write appends raw bytes.
func (w *Writer) Write(p []byte) {
	w.buf.Write(p)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// ---------------------------------------------------------------------------
// Constant encoding
// ---------------------------------------------------------------------------

// EncodeConstant writes c in its class file layout, tag byte first.
func EncodeConstant(w *Writer, c Constant) error {
	if c == nil {
		return fmt.Errorf("%w: nil constant", ErrEncode)
	}
	w.U8(uint8(c.Tag()))
	switch c := c.(type) {
	case *Utf8Info:
		if len(c.Value) > math.MaxUint16 {
			return fmt.Errorf("%w: utf8 constant of %d bytes", ErrEncode, len(c.Value))
		}
		w.U16(uint16(len(c.Value)))
		w.Write([]byte(c.Value))
	case *IntegerInfo:
		w.U32(uint32(c.Value))
	case *FloatInfo:
		w.U32(math.Float32bits(c.Value))
	case *LongInfo:
		w.U64(uint64(c.Value))
	case *DoubleInfo:
		w.U64(math.Float64bits(c.Value))
	case *ClassInfo:
		w.U16(c.NameIndex)
	case *StringInfo:
		w.U16(c.StringIndex)
	case *FieldrefInfo:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *MethodrefInfo:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *InterfaceMethodrefInfo:
		w.U16(c.ClassIndex)
		w.U16(c.NameAndTypeIndex)
	case *NameAndTypeInfo:
		w.U16(c.NameIndex)
		w.U16(c.DescriptorIndex)
	case *MethodHandleInfo:
		w.U8(uint8(c.ReferenceKind))
		w.U16(c.ReferenceIndex)
	case *MethodTypeInfo:
		w.U16(c.DescriptorIndex)
	case *DynamicInfo:
		w.U16(c.BootstrapMethodAttrIndex)
		w.U16(c.NameAndTypeIndex)
	case *InvokeDynamicInfo:
		w.U16(c.BootstrapMethodAttrIndex)
		w.U16(c.NameAndTypeIndex)
	case *ModuleInfo:
		w.U16(c.NameIndex)
	case *PackageInfo:
		w.U16(c.NameIndex)
	default:
		return fmt.Errorf("%w: constant type %T", ErrEncode, c)
	}
	return nil
}

// EncodeConstantPool writes the pool count followed by every entry. The
// unusable slot after a long or double is skipped, as in the file format.
func EncodeConstantPool(w *Writer, cp ConstantPool) error {
	if len(cp)+1 > math.MaxUint16 {
		return fmt.Errorf("%w: %d constants", ErrEncode, len(cp))
	}
	w.U16(uint16(len(cp) + 1))
	for i, c := range cp {
		if c == nil {
			continue
		}
		if err := EncodeConstant(w, c); err != nil {
			return fmt.Errorf("constant #%d: %w", i+1, err)
		}
	}
	return nil
}
