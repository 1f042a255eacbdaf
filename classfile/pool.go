package classfile

import (
	"fmt"
	"math"
)

// ConstantPool holds the decoded constants of one class. Index i of the
// file format is element i-1. The slot following a long or double is nil.
type ConstantPool []Constant

// MemberRef is a fully resolved Fieldref, Methodref or InterfaceMethodref.
type MemberRef struct {
	Class      string
	Name       string
	Descriptor string
}

func (m MemberRef) String() string {
	return m.Class + "." + m.Name + m.Descriptor
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeConstantPool reads count-1 pool slots from r. Indices stored inside
// constants are not checked here.
func DecodeConstantPool(r *Reader, count uint16) (ConstantPool, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: 0 at offset %d", ErrBadPoolCount, r.Offset()-2)
	}
	cp := make(ConstantPool, count-1)
	for i := 1; i < int(count); i++ {
		c, err := decodeConstant(r)
		if err != nil {
			return nil, fmt.Errorf("constant #%d: %w", i, err)
		}
		cp[i-1] = c
		if c.Tag().Wide() {
			if i+1 >= int(count) {
				return nil, fmt.Errorf("%w: %s at #%d overruns pool of %d",
					ErrBadPoolCount, c.Tag(), i, count)
			}
			// second slot stays nil
			i++
		}
	}
	return cp, nil
}

func decodeConstant(r *Reader) (Constant, error) {
	offset := r.Offset()
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}

	switch ConstantTag(tag) {
	case TagUtf8:
		n, err := r.U16()
		if err != nil {
			return nil, err
		}
		s, err := r.UTF8(int(n))
		if err != nil {
			return nil, err
		}
		return &Utf8Info{Value: s}, nil

	case TagInteger:
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		return &IntegerInfo{Value: int32(v)}, nil

	case TagFloat:
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		return &FloatInfo{Value: math.Float32frombits(v)}, nil

	case TagLong:
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		return &LongInfo{Value: int64(v)}, nil

	case TagDouble:
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		return &DoubleInfo{Value: math.Float64frombits(v)}, nil

	case TagClass:
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &ClassInfo{NameIndex: idx}, nil

	case TagString:
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &StringInfo{StringIndex: idx}, nil

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		classIdx, ntIdx, err := readIndexPair(r)
		if err != nil {
			return nil, err
		}
		switch ConstantTag(tag) {
		case TagFieldref:
			return &FieldrefInfo{ClassIndex: classIdx, NameAndTypeIndex: ntIdx}, nil
		case TagMethodref:
			return &MethodrefInfo{ClassIndex: classIdx, NameAndTypeIndex: ntIdx}, nil
		default:
			return &InterfaceMethodrefInfo{ClassIndex: classIdx, NameAndTypeIndex: ntIdx}, nil
		}

	case TagNameAndType:
		nameIdx, descIdx, err := readIndexPair(r)
		if err != nil {
			return nil, err
		}
		return &NameAndTypeInfo{NameIndex: nameIdx, DescriptorIndex: descIdx}, nil

	case TagMethodHandle:
		kind, err := r.U8()
		if err != nil {
			return nil, err
		}
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &MethodHandleInfo{ReferenceKind: MethodHandleKind(kind), ReferenceIndex: idx}, nil

	case TagMethodType:
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &MethodTypeInfo{DescriptorIndex: idx}, nil

	case TagDynamic, TagInvokeDynamic:
		bsm, ntIdx, err := readIndexPair(r)
		if err != nil {
			return nil, err
		}
		if ConstantTag(tag) == TagDynamic {
			return &DynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: ntIdx}, nil
		}
		return &InvokeDynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: ntIdx}, nil

	case TagModule:
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &ModuleInfo{NameIndex: idx}, nil

	case TagPackage:
		idx, err := r.U16()
		if err != nil {
			return nil, err
		}
		return &PackageInfo{NameIndex: idx}, nil
	}

	return nil, fmt.Errorf("%w: %d at offset %d", ErrUnknownTag, tag, offset)
}

func readIndexPair(r *Reader) (uint16, uint16, error) {
	a, err := r.U16()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.U16()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// Entry returns the constant at the 1-based index.
func (cp ConstantPool) Entry(index uint16) (Constant, error) {
	if index == 0 || int(index) > len(cp) {
		return nil, fmt.Errorf("%w: #%d (pool has %d slots)", ErrIndexOutOfRange, index, len(cp))
	}
	c := cp[index-1]
	if c == nil {
		return nil, fmt.Errorf("%w: #%d is the unusable half of a long or double",
			ErrIndexOutOfRange, index)
	}
	return c, nil
}

// lookup resolves index and asserts that it holds a T.
func lookup[T Constant](cp ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	c, err := cp.Entry(index)
	if err != nil {
		return zero, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("%w: #%d is %s, want %s", ErrWrongConstantKind, index, c.Tag(), want)
	}
	return v, nil
}

// Utf8 resolves a Utf8 constant.
func (cp ConstantPool) Utf8(index uint16) (string, error) {
	c, err := lookup[*Utf8Info](cp, index, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Integer resolves an Integer constant.
func (cp ConstantPool) Integer(index uint16) (int32, error) {
	c, err := lookup[*IntegerInfo](cp, index, TagInteger)
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// ClassName resolves a Class constant to its binary name (Class -> Utf8).
func (cp ConstantPool) ClassName(index uint16) (string, error) {
	c, err := lookup[*ClassInfo](cp, index, TagClass)
	if err != nil {
		return "", err
	}
	name, err := cp.Utf8(c.NameIndex)
	if err != nil {
		return "", fmt.Errorf("class #%d name: %w", index, err)
	}
	return name, nil
}

// StringValue resolves a String constant (String -> Utf8).
func (cp ConstantPool) StringValue(index uint16) (string, error) {
	c, err := lookup[*StringInfo](cp, index, TagString)
	if err != nil {
		return "", err
	}
	s, err := cp.Utf8(c.StringIndex)
	if err != nil {
		return "", fmt.Errorf("string #%d value: %w", index, err)
	}
	return s, nil
}

// NameAndType resolves a NameAndType constant to its name and descriptor.
func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c, err := lookup[*NameAndTypeInfo](cp, index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(c.NameIndex); err != nil {
		return "", "", fmt.Errorf("name-and-type #%d name: %w", index, err)
	}
	if descriptor, err = cp.Utf8(c.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("name-and-type #%d descriptor: %w", index, err)
	}
	return name, descriptor, nil
}

// Methodref resolves a Methodref through Class -> Utf8 and
// NameAndType -> Utf8 x2. Interface method refs are rejected.
func (cp ConstantPool) Methodref(index uint16) (MemberRef, error) {
	c, err := lookup[*MethodrefInfo](cp, index, TagMethodref)
	if err != nil {
		return MemberRef{}, err
	}
	return cp.memberRef(index, c.ClassIndex, c.NameAndTypeIndex)
}

// Fieldref resolves a Fieldref the same way as Methodref.
func (cp ConstantPool) Fieldref(index uint16) (MemberRef, error) {
	c, err := lookup[*FieldrefInfo](cp, index, TagFieldref)
	if err != nil {
		return MemberRef{}, err
	}
	return cp.memberRef(index, c.ClassIndex, c.NameAndTypeIndex)
}

func (cp ConstantPool) memberRef(index, classIdx, ntIdx uint16) (MemberRef, error) {
	class, err := cp.ClassName(classIdx)
	if err != nil {
		return MemberRef{}, fmt.Errorf("ref #%d class: %w", index, err)
	}
	name, desc, err := cp.NameAndType(ntIdx)
	if err != nil {
		return MemberRef{}, fmt.Errorf("ref #%d: %w", index, err)
	}
	return MemberRef{Class: class, Name: name, Descriptor: desc}, nil
}
