package classfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReaderBigEndian(t *testing.T) {
	r := NewReader([]byte{
		0xAB,
		0x12, 0x34,
		0xCA, 0xFE, 0xBA, 0xBE,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	})

	u8, err := r.U8()
	if err != nil || u8 != 0xAB {
		t.Fatalf("U8 = %#x, %v; want 0xab", u8, err)
	}
	u16, err := r.U16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("U16 = %#x, %v; want 0x1234", u16, err)
	}
	u32, err := r.U32()
	if err != nil || u32 != 0xCAFEBABE {
		t.Fatalf("U32 = %#x, %v; want 0xcafebabe", u32, err)
	}
	u64, err := r.U64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("U64 = %#x, %v; want 0x0102030405060708", u64, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
	if r.Offset() != 15 {
		t.Errorf("Offset = %d, want 15", r.Offset())
	}
}

func TestReaderTruncation(t *testing.T) {
	tests := []struct {
		name string
		read func(*Reader) error
	}{
		{"U16", func(r *Reader) error { _, err := r.U16(); return err }},
		{"U32", func(r *Reader) error { _, err := r.U32(); return err }},
		{"U64", func(r *Reader) error { _, err := r.U64(); return err }},
		{"Bytes", func(r *Reader) error { _, err := r.Bytes(2); return err }},
		{"UTF8", func(r *Reader) error { _, err := r.UTF8(2); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader([]byte{0x01})
			err := tt.read(r)
			if !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("err = %v, want ErrUnexpectedEOF", err)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("err = %v, want ErrFormat category", err)
			}
			// A failed read does not move the cursor.
			if r.Offset() != 0 {
				t.Errorf("Offset after failed read = %d, want 0", r.Offset())
			}
		})
	}
}

func TestReaderNegativeLength(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.Bytes(-1); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Bytes(-1) err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestReaderBytesCopies(t *testing.T) {
	data := []byte{1, 2, 3}
	r := NewReader(data)
	b, err := r.Bytes(3)
	if err != nil {
		t.Fatal(err)
	}
	b[0] = 99
	if data[0] != 1 {
		t.Error("Bytes returned a slice aliasing the input buffer")
	}
}

func TestReaderReset(t *testing.T) {
	r := NewReader([]byte("hello"))
	first, _ := r.UTF8(5)
	r.Reset()
	again, err := r.UTF8(5)
	if err != nil {
		t.Fatal(err)
	}
	if first != again || again != "hello" {
		t.Errorf("after Reset read %q, want %q", again, first)
	}
}

func TestSubReaderReportsAbsoluteOffsets(t *testing.T) {
	r := NewReader(bytes.Repeat([]byte{0}, 10))
	if _, err := r.U32(); err != nil {
		t.Fatal(err)
	}
	s, err := r.sub(2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Offset() != 4 {
		t.Errorf("sub Offset = %d, want 4", s.Offset())
	}
	_, err = s.U32()
	if err == nil || !strings.Contains(err.Error(), "offset 4") {
		t.Errorf("sub read error = %v, want mention of offset 4", err)
	}
	if r.Offset() != 6 {
		t.Errorf("parent Offset = %d, want 6", r.Offset())
	}
}

func TestWriterInvertsReader(t *testing.T) {
	w := NewWriter()
	w.U8(7)
	w.U16(0xBEEF)
	w.U32(0xDEADBEEF)
	w.U64(0x1122334455667788)
	w.Write([]byte("ok"))

	r := NewReader(w.Bytes())
	a, _ := r.U8()
	b, _ := r.U16()
	c, _ := r.U32()
	d, _ := r.U64()
	e, err := r.UTF8(2)
	if err != nil {
		t.Fatal(err)
	}
	if a != 7 || b != 0xBEEF || c != 0xDEADBEEF || d != 0x1122334455667788 || e != "ok" {
		t.Errorf("round trip mismatch: %d %#x %#x %#x %q", a, b, c, d, e)
	}
}
