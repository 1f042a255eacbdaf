// Package classtest assembles class files byte by byte for tests.
//
//	b := classtest.New("demo/Main")
//	b.StaticMethod("main", "([Ljava/lang/String;)V", 1, 1, 0x03, 0xB1)
//	data := b.Bytes()
package classtest

import (
	"fmt"

	"github.com/chazu/jolt/classfile"
)

// Builder accumulates a constant pool, members and attributes and writes
// them in class file order. Pool indices are handed out as constants are
// added, so callers can embed them in bytecode.
type Builder struct {
	Minor, Major uint16
	Access       classfile.AccessFlags

	pool    classfile.ConstantPool
	utf8    map[string]uint16
	classes map[string]uint16

	this, super uint16
	interfaces  []uint16
	fields      [][]byte
	methods     [][]byte
	attributes  [][]byte
}

// New starts a public class named name extending java/lang/Object.
func New(name string) *Builder {
	b := &Builder{
		Major:   52,
		Access:  classfile.AccPublic | classfile.AccSuper,
		utf8:    make(map[string]uint16),
		classes: make(map[string]uint16),
	}
	b.this = b.Class(name)
	b.super = b.Class("java/lang/Object")
	return b
}

// ---------------------------------------------------------------------------
// Constant pool
// ---------------------------------------------------------------------------

// Add appends a raw constant and returns its index. Long and double take
// two slots.
func (b *Builder) Add(c classfile.Constant) uint16 {
	b.pool = append(b.pool, c)
	idx := uint16(len(b.pool))
	if c.Tag().Wide() {
		b.pool = append(b.pool, nil)
	}
	return idx
}

// Utf8 returns the index of a Utf8 constant, adding it once.
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	idx := b.Add(&classfile.Utf8Info{Value: s})
	b.utf8[s] = idx
	return idx
}

// Class returns the index of a Class constant, adding it once.
func (b *Builder) Class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	idx := b.Add(&classfile.ClassInfo{NameIndex: b.Utf8(name)})
	b.classes[name] = idx
	return idx
}

// StringConst adds a String constant.
func (b *Builder) StringConst(s string) uint16 {
	return b.Add(&classfile.StringInfo{StringIndex: b.Utf8(s)})
}

func (b *Builder) Integer(v int32) uint16 {
	return b.Add(&classfile.IntegerInfo{Value: v})
}

func (b *Builder) Long(v int64) uint16 {
	return b.Add(&classfile.LongInfo{Value: v})
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	return b.Add(&classfile.NameAndTypeInfo{NameIndex: b.Utf8(name), DescriptorIndex: b.Utf8(desc)})
}

func (b *Builder) Methodref(class, name, desc string) uint16 {
	return b.Add(&classfile.MethodrefInfo{ClassIndex: b.Class(class), NameAndTypeIndex: b.NameAndType(name, desc)})
}

func (b *Builder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.Add(&classfile.InterfaceMethodrefInfo{ClassIndex: b.Class(class), NameAndTypeIndex: b.NameAndType(name, desc)})
}

// SetSuper points super_class at an arbitrary pool index (0 for none).
func (b *Builder) SetSuper(idx uint16) {
	b.super = idx
}

// SetThis points this_class at an arbitrary pool index.
func (b *Builder) SetThis(idx uint16) {
	b.this = idx
}

// Interface adds an implemented interface.
func (b *Builder) Interface(name string) {
	b.interfaces = append(b.interfaces, b.Class(name))
}

// ---------------------------------------------------------------------------
// Attributes and members
// ---------------------------------------------------------------------------

// Attribute encodes an attribute with the given name and body.
func (b *Builder) Attribute(name string, body []byte) []byte {
	w := classfile.NewWriter()
	w.U16(b.Utf8(name))
	w.U32(uint32(len(body)))
	w.Write(body)
	return w.Bytes()
}

// Code encodes a Code attribute with an empty exception table.
func (b *Builder) Code(maxStack, maxLocals uint16, code []byte, nested ...[]byte) []byte {
	return b.CodeWithHandlers(maxStack, maxLocals, code, nil, nested...)
}

// CodeWithHandlers encodes a Code attribute with an exception table.
func (b *Builder) CodeWithHandlers(maxStack, maxLocals uint16, code []byte, handlers []classfile.ExceptionHandler, nested ...[]byte) []byte {
	w := classfile.NewWriter()
	w.U16(maxStack)
	w.U16(maxLocals)
	w.U32(uint32(len(code)))
	w.Write(code)
	w.U16(uint16(len(handlers)))
	for _, h := range handlers {
		w.U16(h.StartPC)
		w.U16(h.EndPC)
		w.U16(h.HandlerPC)
		w.U16(h.CatchType)
	}
	w.U16(uint16(len(nested)))
	for _, a := range nested {
		w.Write(a)
	}
	return b.Attribute(classfile.AttrCode, w.Bytes())
}

// LineNumbers encodes a LineNumberTable from (pc, line) pairs.
func (b *Builder) LineNumbers(pairs ...uint16) []byte {
	w := classfile.NewWriter()
	w.U16(uint16(len(pairs) / 2))
	for i := 0; i+1 < len(pairs); i += 2 {
		w.U16(pairs[i])
		w.U16(pairs[i+1])
	}
	return b.Attribute(classfile.AttrLineNumberTable, w.Bytes())
}

// SourceFile adds a class-level SourceFile attribute.
func (b *Builder) SourceFile(name string) {
	w := classfile.NewWriter()
	w.U16(b.Utf8(name))
	b.ClassAttribute(b.Attribute(classfile.AttrSourceFile, w.Bytes()))
}

// ClassAttribute adds a pre-encoded class-level attribute.
func (b *Builder) ClassAttribute(attr []byte) {
	b.attributes = append(b.attributes, attr)
}

// Field adds a field.
func (b *Builder) Field(access classfile.AccessFlags, name, desc string, attrs ...[]byte) {
	b.fields = append(b.fields, b.member(access, name, desc, attrs))
}

// Method adds a method with pre-encoded attributes.
func (b *Builder) Method(access classfile.AccessFlags, name, desc string, attrs ...[]byte) {
	b.methods = append(b.methods, b.member(access, name, desc, attrs))
}

// StaticMethod adds a public static method whose only attribute is Code.
func (b *Builder) StaticMethod(name, desc string, maxStack, maxLocals uint16, code ...byte) {
	b.Method(classfile.AccPublic|classfile.AccStatic, name, desc, b.Code(maxStack, maxLocals, code))
}

func (b *Builder) member(access classfile.AccessFlags, name, desc string, attrs [][]byte) []byte {
	w := classfile.NewWriter()
	w.U16(uint16(access))
	w.U16(b.Utf8(name))
	w.U16(b.Utf8(desc))
	w.U16(uint16(len(attrs)))
	for _, a := range attrs {
		w.Write(a)
	}
	return w.Bytes()
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// Bytes writes the complete class file.
func (b *Builder) Bytes() []byte {
	w := classfile.NewWriter()
	w.U32(classfile.Magic)
	w.U16(b.Minor)
	w.U16(b.Major)
	if err := classfile.EncodeConstantPool(w, b.pool); err != nil {
		panic(fmt.Sprintf("classtest: %v", err))
	}
	w.U16(uint16(b.Access))
	w.U16(b.this)
	w.U16(b.super)
	w.U16(uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		w.U16(i)
	}
	for _, section := range [][][]byte{b.fields, b.methods, b.attributes} {
		w.U16(uint16(len(section)))
		for _, item := range section {
			w.Write(item)
		}
	}
	return w.Bytes()
}

// Decode writes and decodes the class, panicking on failure.
func (b *Builder) Decode() *classfile.Class {
	c, err := classfile.Decode(b.Bytes())
	if err != nil {
		panic(fmt.Sprintf("classtest: decode: %v", err))
	}
	return c
}
