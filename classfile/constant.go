package classfile

import "fmt"

// ConstantTag identifies the layout of a constant pool entry.
type ConstantTag uint8

const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

var tagNames = map[ConstantTag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t ConstantTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Wide reports whether constants with this tag occupy two pool slots.
func (t ConstantTag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// MethodHandleKind is the reference_kind of a MethodHandle constant.
type MethodHandleKind uint8

const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)

// ---------------------------------------------------------------------------
// Constant variants
// ---------------------------------------------------------------------------

// Constant is one constant pool entry. The set of implementations is
// closed: exactly one type per ConstantTag.
type Constant interface {
	Tag() ConstantTag
}

type Utf8Info struct {
	Value string
}

type IntegerInfo struct {
	Value int32
}

type FloatInfo struct {
	Value float32
}

type LongInfo struct {
	Value int64
}

type DoubleInfo struct {
	Value float64
}

type ClassInfo struct {
	NameIndex uint16
}

type StringInfo struct {
	StringIndex uint16
}

type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type MethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

type MethodTypeInfo struct {
	DescriptorIndex uint16
}

type DynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type InvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type ModuleInfo struct {
	NameIndex uint16
}

type PackageInfo struct {
	NameIndex uint16
}

func (*Utf8Info) Tag() ConstantTag               { return TagUtf8 }
func (*IntegerInfo) Tag() ConstantTag            { return TagInteger }
func (*FloatInfo) Tag() ConstantTag              { return TagFloat }
func (*LongInfo) Tag() ConstantTag               { return TagLong }
func (*DoubleInfo) Tag() ConstantTag             { return TagDouble }
func (*ClassInfo) Tag() ConstantTag              { return TagClass }
func (*StringInfo) Tag() ConstantTag             { return TagString }
func (*FieldrefInfo) Tag() ConstantTag           { return TagFieldref }
func (*MethodrefInfo) Tag() ConstantTag          { return TagMethodref }
func (*InterfaceMethodrefInfo) Tag() ConstantTag { return TagInterfaceMethodref }
func (*NameAndTypeInfo) Tag() ConstantTag        { return TagNameAndType }
func (*MethodHandleInfo) Tag() ConstantTag       { return TagMethodHandle }
func (*MethodTypeInfo) Tag() ConstantTag         { return TagMethodType }
func (*DynamicInfo) Tag() ConstantTag            { return TagDynamic }
func (*InvokeDynamicInfo) Tag() ConstantTag      { return TagInvokeDynamic }
func (*ModuleInfo) Tag() ConstantTag             { return TagModule }
func (*PackageInfo) Tag() ConstantTag            { return TagPackage }
