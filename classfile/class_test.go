package classfile_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/jolt/classfile"
	"github.com/chazu/jolt/classfile/classtest"
)

func TestDecodeShortBuffer(t *testing.T) {
	for _, data := range [][]byte{nil, {0xCA}, {0xCA, 0xFE, 0xBA}} {
		_, err := classfile.Decode(data)
		if !errors.Is(err, classfile.ErrUnexpectedEOF) {
			t.Fatalf("Decode(% x) err = %v, want ErrUnexpectedEOF", data, err)
		}
		if !errors.Is(err, classfile.ErrFormat) {
			t.Errorf("Decode(% x) err = %v, want ErrFormat category", data, err)
		}
		if !strings.Contains(err.Error(), "at offset 0") {
			t.Errorf("Decode(% x) err = %q, want truncation point offset 0", data, err)
		}
	}
}

func TestDecodeBadMagic(t *testing.T) {
	data := classtest.New("demo/Main").Bytes()
	data[0] = 0xCB
	_, err := classfile.Decode(data)
	if !errors.Is(err, classfile.ErrNotClassFile) {
		t.Fatalf("err = %v, want ErrNotClassFile", err)
	}
	if !strings.Contains(err.Error(), "0xCBFEBABE") {
		t.Errorf("err = %q, want the bad magic value", err)
	}
}

func TestDecodeMinimalClass(t *testing.T) {
	b := classtest.New("demo/Main")
	b.Minor, b.Major = 3, 61
	b.Interface("java/lang/Runnable")
	b.Field(classfile.AccPrivate|classfile.AccStatic, "count", "I")
	b.StaticMethod("main", "([Ljava/lang/String;)V", 1, 1, 0x03, 0xB1)
	b.SourceFile("Main.java")

	c, err := classfile.Decode(b.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.ThisClass != "demo/Main" {
		t.Errorf("ThisClass = %q", c.ThisClass)
	}
	if c.SuperClass != "java/lang/Object" {
		t.Errorf("SuperClass = %q", c.SuperClass)
	}
	if c.Version() != "61.3" {
		t.Errorf("Version = %q, want 61.3", c.Version())
	}
	if !c.AccessFlags.Has(classfile.AccPublic | classfile.AccSuper) {
		t.Errorf("AccessFlags = %s", c.AccessFlags.Format(classfile.ClassFlags))
	}
	if c.SourceFile() != "Main.java" {
		t.Errorf("SourceFile = %q", c.SourceFile())
	}
	ifaces, err := c.InterfaceNames()
	if err != nil || len(ifaces) != 1 || ifaces[0] != "java/lang/Runnable" {
		t.Errorf("InterfaceNames = %v, %v", ifaces, err)
	}
	if len(c.Fields) != 1 || c.Fields[0].Name != "count" || c.Fields[0].Descriptor != "I" {
		t.Errorf("Fields = %v", c.Fields)
	}

	mains := c.FindMethods("main")
	if len(mains) != 1 {
		t.Fatalf("FindMethods(main) returned %d methods", len(mains))
	}
	code := mains[0].Code()
	if code == nil {
		t.Fatal("main has no Code attribute")
	}
	if code.MaxStack != 1 || code.MaxLocals != 1 || !bytes.Equal(code.Code, []byte{0x03, 0xB1}) {
		t.Errorf("Code = %+v", code)
	}
	if mains[0].String() != "main([Ljava/lang/String;)V" {
		t.Errorf("Member.String = %q", mains[0].String())
	}
}

func TestParseReader(t *testing.T) {
	data := classtest.New("demo/Main").Bytes()
	c, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if c.ThisClass != "demo/Main" {
		t.Errorf("ThisClass = %q", c.ThisClass)
	}
}

func TestDecodeRootClassHasNoSuper(t *testing.T) {
	b := classtest.New("java/lang/Object")
	b.SetSuper(0)
	c, err := classfile.Decode(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if c.SuperClass != "" {
		t.Errorf("SuperClass = %q, want empty", c.SuperClass)
	}
}

func TestDecodeThisSuperResolution(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*classtest.Builder)
		want  error
	}{
		{"this is utf8", func(b *classtest.Builder) { b.SetThis(b.Utf8("demo/Main")) }, classfile.ErrWrongConstantKind},
		{"this is zero", func(b *classtest.Builder) { b.SetThis(0) }, classfile.ErrIndexOutOfRange},
		{"super past pool", func(b *classtest.Builder) { b.SetSuper(500) }, classfile.ErrIndexOutOfRange},
		{"super is integer", func(b *classtest.Builder) { b.SetSuper(b.Integer(1)) }, classfile.ErrWrongConstantKind},
		{"class name is integer", func(b *classtest.Builder) {
			b.SetThis(b.Add(&classfile.ClassInfo{NameIndex: b.Integer(5)}))
		}, classfile.ErrWrongConstantKind},
		{"super is wide second slot", func(b *classtest.Builder) { b.SetSuper(b.Long(1) + 1) }, classfile.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := classtest.New("demo/Main")
			tt.setup(b)
			_, err := classfile.Decode(b.Bytes())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, classfile.ErrResolution) {
				t.Errorf("err = %v, want ErrResolution category", err)
			}
		})
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data := append(classtest.New("demo/Main").Bytes(), 0x00)
	_, err := classfile.Decode(data)
	if !errors.Is(err, classfile.ErrTrailingBytes) {
		t.Fatalf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestDecodeEveryPrefixFails(t *testing.T) {
	b := classtest.New("demo/Main")
	b.Long(7)
	b.StaticMethod("run", "()I", 1, 0, 0x04, 0xAC)
	b.SourceFile("Main.java")
	data := b.Bytes()

	for n := 0; n < len(data); n++ {
		_, err := classfile.Decode(data[:n])
		if !errors.Is(err, classfile.ErrUnexpectedEOF) {
			t.Fatalf("Decode of %d/%d bytes: err = %v, want ErrUnexpectedEOF", n, len(data), err)
		}
	}
	if _, err := classfile.Decode(data); err != nil {
		t.Fatalf("Decode of full class: %v", err)
	}
}

func TestDecodeKeepsPool(t *testing.T) {
	b := classtest.New("demo/Main")
	ref := b.Methodref("demo/Util", "twice", "(I)I")
	c := b.Decode()

	m, err := c.Pool.Methodref(ref)
	if err != nil {
		t.Fatal(err)
	}
	if m.Class != "demo/Util" || m.Name != "twice" || m.Descriptor != "(I)I" {
		t.Errorf("Methodref = %+v", m)
	}
}

func TestAccessFlagsFormat(t *testing.T) {
	f := classfile.AccPublic | classfile.AccStatic | classfile.AccFinal
	if got := f.Format(classfile.MethodFlags); got != "public static final" {
		t.Errorf("Format = %q", got)
	}
	if got := classfile.AccessFlags(0x0021).String(); got != "0x0021" {
		t.Errorf("String = %q", got)
	}
	if got := classfile.AccessFlags(0x0020).Format(classfile.MethodFlags); got != "synchronized" {
		t.Errorf("method 0x0020 = %q, want synchronized", got)
	}
}
