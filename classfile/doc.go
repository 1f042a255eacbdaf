// Package classfile decodes the compiled class file format.
//
// A class file is a big-endian binary structure. Decoding is strictly
// ordered:
//
//   - magic (0xCAFEBABE), minor and major version
//   - the constant pool: a 1-based table of tagged constants that refer to
//     each other by index
//   - access flags, this/super class, implemented interfaces
//   - fields and methods, each carrying named attributes
//   - class-level attributes
//
// Attributes are identified by name rather than by tag. The Code attribute
// holds the raw bytecode of a method together with its exception table and
// a nested attribute list, and is decoded recursively.
//
// Index fields inside constants are stored as read and are only checked
// when resolved through the ConstantPool accessors. Every accessor asserts
// the kind of constant it expects and fails with ErrWrongConstantKind
// rather than returning a zero value.
//
// # Errors
//
// All failures wrap one of two categories so callers can branch on them
// with errors.Is:
//
//   - ErrFormat: the bytes are malformed (bad magic, truncation, unknown
//     constant tag, attribute length mismatch)
//   - ErrResolution: a constant index is out of range or names the wrong
//     kind of constant
//
// Messages carry the absolute byte offset or constant index involved.
package classfile
