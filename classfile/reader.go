package classfile

import (
	"encoding/binary"
	"fmt"
)

// ---------------------------------------------------------------------------
// Reader: sequential big-endian cursor over a class file
// ---------------------------------------------------------------------------

// Reader reads fixed-width big-endian values from a byte buffer, advancing
// an offset. A read that needs more bytes than remain fails with
// ErrUnexpectedEOF; nothing is ever truncated or zero-filled.
type Reader struct {
	data   []byte
	offset int // read position within data
	base   int // absolute offset of data[0] in the enclosing file
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the absolute position of the next byte to be read.
func (r *Reader) Offset() int {
	return r.base + r.offset
}

// Len returns the total size of the buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Reset rewinds to the start of the buffer.
func (r *Reader) Reset() {
	r.offset = 0
}

func (r *Reader) need(n int) error {
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, %d remaining",
			ErrUnexpectedEOF, n, r.Offset(), r.Remaining())
	}
	return nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.offset:])
	r.offset += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.offset:r.offset+n])
	r.offset += n
	return out, nil
}

// UTF8 reads n bytes as text. Class files store strings in modified UTF-8;
// the bytes are kept as-is so they re-encode exactly.
func (r *Reader) UTF8(n int) (string, error) {
	if err := r.need(n); err != nil {
		return "", err
	}
	s := string(r.data[r.offset : r.offset+n])
	r.offset += n
	return s, nil
}

// sub consumes the next n bytes and returns a Reader over them that
// reports offsets relative to the enclosing file.
func (r *Reader) sub(n int) (*Reader, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	s := &Reader{
		data: r.data[r.offset : r.offset+n],
		base: r.Offset(),
	}
	r.offset += n
	return s, nil
}
