package classfile

import (
	"fmt"
	"io"
)

// Magic is the signature every class file starts with.
const Magic uint32 = 0xCAFEBABE

// Class is a decoded class file. It is never modified after Decode returns
// and may be shared freely between readers.
type Class struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         ConstantPool
	AccessFlags  AccessFlags
	ThisClass    string // binary name, e.g. "com/example/Main"
	SuperClass   string // empty only for the root class
	Interfaces   []uint16
	Fields       []*Member
	Methods      []*Member
	Attributes   []Attribute
}

// Member is a field or method.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Code returns the first Code attribute of the member, or nil.
func (m *Member) Code() *CodeAttribute {
	for _, a := range m.Attributes {
		if c, ok := a.(*CodeAttribute); ok {
			return c
		}
	}
	return nil
}

func (m *Member) String() string {
	return m.Name + m.Descriptor
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Parse reads all of r and decodes it as a class file.
func Parse(r io.Reader) (*Class, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read class data: %w", err)
	}
	return Decode(data)
}

// Decode decodes a complete class file. The fields are read in file order;
// the first malformed or unresolvable item aborts decoding.
func Decode(data []byte) (*Class, error) {
	r := NewReader(data)

	magic, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: magic is 0x%08X", ErrNotClassFile, magic)
	}

	c := &Class{}
	if c.MinorVersion, err = r.U16(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if c.MajorVersion, err = r.U16(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	count, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	if c.Pool, err = DecodeConstantPool(r, count); err != nil {
		return nil, fmt.Errorf("reading constant pool: %w", err)
	}

	flags, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	c.AccessFlags = AccessFlags(flags)

	thisIdx, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if c.ThisClass, err = c.Pool.ClassName(thisIdx); err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}

	superIdx, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}
	if superIdx != 0 {
		if c.SuperClass, err = c.Pool.ClassName(superIdx); err != nil {
			return nil, fmt.Errorf("resolving super_class: %w", err)
		}
	}

	n, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading interface count: %w", err)
	}
	c.Interfaces = make([]uint16, n)
	for i := range c.Interfaces {
		if c.Interfaces[i], err = r.U16(); err != nil {
			return nil, fmt.Errorf("reading interface %d: %w", i, err)
		}
	}

	if c.Fields, err = decodeMembers(r, c.Pool, "field"); err != nil {
		return nil, err
	}
	if c.Methods, err = decodeMembers(r, c.Pool, "method"); err != nil {
		return nil, err
	}
	if c.Attributes, err = DecodeAttributes(r, c.Pool); err != nil {
		return nil, fmt.Errorf("reading class attributes: %w", err)
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingBytes, r.Remaining(), r.Offset())
	}
	return c, nil
}

func decodeMembers(r *Reader, pool ConstantPool, kind string) ([]*Member, error) {
	count, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("reading %s count: %w", kind, err)
	}
	members := make([]*Member, 0, count)
	for i := 0; i < int(count); i++ {
		m, err := decodeMember(r, pool)
		if err != nil {
			return nil, fmt.Errorf("reading %s %d: %w", kind, i, err)
		}
		members = append(members, m)
	}
	return members, nil
}

func decodeMember(r *Reader, pool ConstantPool) (*Member, error) {
	flags, err := r.U16()
	if err != nil {
		return nil, err
	}
	m := &Member{AccessFlags: AccessFlags(flags)}

	nameIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	if m.Name, err = pool.Utf8(nameIdx); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	descIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	if m.Descriptor, err = pool.Utf8(descIdx); err != nil {
		return nil, fmt.Errorf("descriptor of %s: %w", m.Name, err)
	}
	if m.Attributes, err = DecodeAttributes(r, pool); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Lookup helpers
// ---------------------------------------------------------------------------

// FindMethods returns the methods named name, in declaration order.
func (c *Class) FindMethods(name string) []*Member {
	var out []*Member
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// SourceFile returns the SourceFile attribute value, or "".
func (c *Class) SourceFile() string {
	for _, a := range c.Attributes {
		if sf, ok := a.(*SourceFileAttribute); ok {
			return sf.SourceFile
		}
	}
	return ""
}

// InterfaceNames resolves the interface indices to binary names.
func (c *Class) InterfaceNames() ([]string, error) {
	names := make([]string, len(c.Interfaces))
	for i, idx := range c.Interfaces {
		name, err := c.Pool.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		names[i] = name
	}
	return names, nil
}

// Version returns "major.minor".
func (c *Class) Version() string {
	return fmt.Sprintf("%d.%d", c.MajorVersion, c.MinorVersion)
}
