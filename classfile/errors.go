package classfile

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps one of them.
var (
	ErrFormat     = errors.New("format error")
	ErrResolution = errors.New("resolution error")
)

// Format errors
var (
	ErrUnexpectedEOF   = fmt.Errorf("%w: unexpected end of class data", ErrFormat)
	ErrNotClassFile    = fmt.Errorf("%w: not a class file", ErrFormat)
	ErrUnknownTag      = fmt.Errorf("%w: unknown constant tag", ErrFormat)
	ErrBadPoolCount    = fmt.Errorf("%w: bad constant pool count", ErrFormat)
	ErrAttributeLength = fmt.Errorf("%w: attribute length mismatch", ErrFormat)
	ErrTrailingBytes   = fmt.Errorf("%w: trailing bytes after class", ErrFormat)
	ErrBadDescriptor   = fmt.Errorf("%w: malformed descriptor", ErrFormat)
	ErrEncode          = fmt.Errorf("%w: cannot encode", ErrFormat)
)

// Resolution errors
var (
	ErrIndexOutOfRange   = fmt.Errorf("%w: constant index out of range", ErrResolution)
	ErrWrongConstantKind = fmt.Errorf("%w: wrong constant kind", ErrResolution)
)
