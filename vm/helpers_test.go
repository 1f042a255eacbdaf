package vm

import (
	"github.com/chazu/jolt/classfile"
	"github.com/chazu/jolt/classfile/classtest"
)

// classMap is an in-memory ClassLookup.
type classMap map[string]*classfile.Class

func (m classMap) Class(name string) (*classfile.Class, bool) {
	c, ok := m[name]
	return c, ok
}

func lookupOf(builders ...*classtest.Builder) classMap {
	m := make(classMap)
	for _, b := range builders {
		c := b.Decode()
		m[c.ThisClass] = c
	}
	return m
}

// hi and lo split a u16 operand (pool index or branch offset) into the
// big-endian bytes that follow the opcode.
func hi(v int) byte { return byte(uint16(v) >> 8) }
func lo(v int) byte { return byte(uint16(v)) }
