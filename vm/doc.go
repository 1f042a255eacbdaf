// Package vm executes the bytecode of decoded class files.
//
// An Engine owns a call stack of Frames. Each Frame runs over a private copy
// of one method's code with operand stack and local variable arrays sized
// from the method's Code attribute. Instructions are decoded by the pure
// DecodeInstruction and applied by the engine's execute step, so decoding
// can be tested without an engine.
//
// This package contains:
//   - Value, the tagged operand representation (int, null, reference)
//   - the opcode table and instruction decoder
//   - the Engine with its run loop and invokestatic resolution
//   - execution tracing with canonical CBOR encoding
//   - a disassembler for methods and whole classes
//
// Classes are looked up through ClassLookup, which is read-only for the
// lifetime of an Engine. Several engines may share one lookup.
package vm
