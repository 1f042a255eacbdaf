package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/jolt/classfile"
)

// Disassemble returns a listing of a method's bytecode: one instruction
// per line with its offset, mnemonic and operands, plus the resolved
// constant for pool references. Listing stops at the first byte that does
// not decode.
func Disassemble(method *classfile.Member, pool classfile.ConstantPool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; %s %s%s\n", method.AccessFlags.Format(classfile.MethodFlags), method.Name, method.Descriptor))
	code := method.Code()
	if code == nil {
		sb.WriteString("; no code\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("; max_stack=%d max_locals=%d code_length=%d\n",
		code.MaxStack, code.MaxLocals, len(code.Code)))

	pc := 0
	for pc < len(code.Code) {
		inst, err := DecodeInstruction(code.Code, pc)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04X  .byte 0x%02X ; %v\n", pc, code.Code[pc], err))
			break
		}
		line := disassembleInstruction(inst, pool)
		if src := code.LineNumber(pc); src > 0 {
			sb.WriteString(fmt.Sprintf("%04X  %-30s ; line %d\n", pc, line, src))
		} else {
			sb.WriteString(fmt.Sprintf("%04X  %s\n", pc, line))
		}
		pc = inst.Next()
	}

	for _, h := range code.ExceptionTable {
		catch := "any"
		if h.CatchType != 0 {
			if name, err := pool.ClassName(h.CatchType); err == nil {
				catch = name
			}
		}
		sb.WriteString(fmt.Sprintf("; handler %04X-%04X -> %04X %s\n", h.StartPC, h.EndPC, h.HandlerPC, catch))
	}
	return sb.String()
}

func disassembleInstruction(inst Instruction, pool classfile.ConstantPool) string {
	switch inst.Op {
	case OpLdc, OpLdcW:
		return fmt.Sprintf("%s #%d ; %s", inst.Op, inst.Operand, describeConstant(pool, uint16(inst.Operand)))
	case OpInvokestatic:
		idx := uint16(inst.Operand)
		if ref, err := pool.Methodref(idx); err == nil {
			return fmt.Sprintf("%s #%d ; %s", inst.Op, idx, ref)
		}
		return fmt.Sprintf("%s #%d ; %s", inst.Op, idx, describeConstant(pool, idx))
	}
	if inst.Op.IsBranch() {
		return fmt.Sprintf("%s %+d (-> %04X)", inst.Op, int(inst.Operand)-inst.PC, inst.Operand)
	}
	return inst.String()
}

// describeConstant renders pool entry idx for listings, or the resolution
// error if it does not resolve.
func describeConstant(pool classfile.ConstantPool, idx uint16) string {
	c, err := pool.Entry(idx)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	switch c := c.(type) {
	case *classfile.Utf8Info:
		return fmt.Sprintf("Utf8 %q", c.Value)
	case *classfile.IntegerInfo:
		return fmt.Sprintf("int %d", c.Value)
	case *classfile.FloatInfo:
		return fmt.Sprintf("float %g", c.Value)
	case *classfile.LongInfo:
		return fmt.Sprintf("long %d", c.Value)
	case *classfile.DoubleInfo:
		return fmt.Sprintf("double %g", c.Value)
	case *classfile.ClassInfo:
		if name, err := pool.ClassName(idx); err == nil {
			return "class " + name
		}
	case *classfile.StringInfo:
		if s, err := pool.StringValue(idx); err == nil {
			return fmt.Sprintf("String %q", s)
		}
	case *classfile.NameAndTypeInfo:
		if name, desc, err := pool.NameAndType(idx); err == nil {
			return "NameAndType " + name + ":" + desc
		}
	case *classfile.MethodrefInfo:
		if ref, err := pool.Methodref(idx); err == nil {
			return "Methodref " + ref.String()
		}
	case *classfile.FieldrefInfo:
		if ref, err := pool.Fieldref(idx); err == nil {
			return "Fieldref " + ref.String()
		}
	}
	return c.Tag().String()
}

// DisassembleClass lists a whole class: header, constant pool, fields and
// every method's bytecode.
func DisassembleClass(c *classfile.Class) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("class %s", c.ThisClass))
	if c.SuperClass != "" {
		sb.WriteString(" extends " + c.SuperClass)
	}
	if ifaces, err := c.InterfaceNames(); err == nil && len(ifaces) > 0 {
		sb.WriteString(" implements " + strings.Join(ifaces, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  version: %s\n", c.Version()))
	sb.WriteString(fmt.Sprintf("  flags: %s (%s)\n", c.AccessFlags, c.AccessFlags.Format(classfile.ClassFlags)))
	if src := c.SourceFile(); src != "" {
		sb.WriteString(fmt.Sprintf("  source: %s\n", src))
	}

	sb.WriteString("\nConstant pool:\n")
	for i, entry := range c.Pool {
		if entry == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("  #%-4d = %s\n", i+1, describeConstant(c.Pool, uint16(i+1))))
	}

	if len(c.Fields) > 0 {
		sb.WriteString("\nFields:\n")
		for _, f := range c.Fields {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", f.AccessFlags.Format(classfile.FieldFlags), f.Descriptor, f.Name))
		}
	}

	for _, m := range c.Methods {
		sb.WriteString("\n")
		sb.WriteString(Disassemble(m, c.Pool))
	}
	return sb.String()
}
