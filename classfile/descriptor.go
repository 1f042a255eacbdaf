package classfile

import "fmt"

// MethodDescriptor is a parsed method descriptor such as "(I[JLjava/lang/String;)V".
// Params and Return hold field descriptors ("I", "[J", "Ljava/lang/String;", "V").
type MethodDescriptor struct {
	Params []string
	Return string
}

// ParseMethodDescriptor splits a method descriptor into its parameter and
// return types.
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	var md MethodDescriptor
	if len(desc) < 3 || desc[0] != '(' {
		return md, fmt.Errorf("%w: %q", ErrBadDescriptor, desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, err := fieldTypeLen(desc, i)
		if err != nil {
			return md, err
		}
		md.Params = append(md.Params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return md, fmt.Errorf("%w: %q has no closing paren", ErrBadDescriptor, desc)
	}
	i++ // ')'
	if i < len(desc) && desc[i] == 'V' && i == len(desc)-1 {
		md.Return = "V"
		return md, nil
	}
	n, err := fieldTypeLen(desc, i)
	if err != nil {
		return md, err
	}
	if i+n != len(desc) {
		return md, fmt.Errorf("%w: %q has trailing characters", ErrBadDescriptor, desc)
	}
	md.Return = desc[i:]
	return md, nil
}

// fieldTypeLen returns the length of the field descriptor starting at desc[i].
func fieldTypeLen(desc string, i int) (int, error) {
	start := i
	for i < len(desc) && desc[i] == '[' {
		i++
	}
	if i >= len(desc) {
		return 0, fmt.Errorf("%w: %q ends inside a type", ErrBadDescriptor, desc)
	}
	switch desc[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i - start + 1, nil
	case 'L':
		for j := i + 1; j < len(desc); j++ {
			if desc[j] == ';' {
				if j == i+1 {
					break
				}
				return j - start + 1, nil
			}
		}
		return 0, fmt.Errorf("%w: %q has an unterminated class type at %d", ErrBadDescriptor, desc, i)
	}
	return 0, fmt.Errorf("%w: %q has bad type character %q at %d", ErrBadDescriptor, desc, desc[i], i)
}

// ParamSlots returns the number of local variable slots the parameters
// occupy. long and double take two.
func (md MethodDescriptor) ParamSlots() int {
	n := 0
	for _, p := range md.Params {
		n += TypeSlots(p)
	}
	return n
}

// TypeSlots returns the slot width of a field descriptor: 0 for void, 2 for
// long and double, 1 otherwise.
func TypeSlots(t string) int {
	switch t {
	case "V":
		return 0
	case "J", "D":
		return 2
	}
	return 1
}

// IsIntType reports whether t is carried as an int on the operand stack.
func IsIntType(t string) bool {
	switch t {
	case "I", "B", "C", "S", "Z":
		return true
	}
	return false
}

// IsReferenceType reports whether t is a class or array type.
func IsReferenceType(t string) bool {
	return len(t) > 0 && (t[0] == 'L' || t[0] == '[')
}
