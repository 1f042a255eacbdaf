package vm

import (
	"errors"
	"testing"

	"github.com/chazu/jolt/classfile"
	"github.com/chazu/jolt/classfile/classtest"
)

const mainDesc = "([Ljava/lang/String;)V"

// TestPushConstantThenReturn walks iconst_0; return one step at a time.
func TestPushConstantThenReturn(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("main", mainDesc, 1, 1, 0x03, 0xB1)
	e := NewEngine(lookupOf(b))

	if err := e.Invoke("demo/Main", "main", "", nil); err != nil {
		t.Fatal(err)
	}
	if e.Depth() != 1 || e.Top().PC != 0 {
		t.Fatalf("after Invoke: depth %d pc %d", e.Depth(), e.Top().PC)
	}

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	stack := e.Top().Stack()
	if len(stack) != 1 || stack[0] != IntValue(0) {
		t.Fatalf("after iconst_0 stack = %v", stack)
	}

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if top := e.Top(); top == nil || top.PC != len(top.Code) {
		t.Fatalf("after return the frame should sit at the end of its code")
	}

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if e.Depth() != 0 {
		t.Fatalf("depth after pop = %d, want 0", e.Depth())
	}
	if _, ok := e.Result(); ok {
		t.Error("void method produced a result")
	}
	if e.Steps() != 2 {
		t.Errorf("Steps = %d, want 2", e.Steps())
	}
	// Stepping an empty engine is a no-op.
	if err := e.Step(); err != nil {
		t.Errorf("Step on empty engine: %v", err)
	}
}

func TestImplicitReturnAtCodeEnd(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("main", mainDesc, 1, 1, 0x00)
	res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo.Main", "main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 0 || res.Steps != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestInvokestaticClassNotFound(t *testing.T) {
	b := classtest.New("demo/Main")
	ref := int(b.Methodref("demo/Missing", "f", "()V"))
	b.StaticMethod("main", mainDesc, 1, 1, 0x04, 0xB8, hi(ref), lo(ref), 0xB1)
	e := NewEngine(lookupOf(b))

	_, err := e.InvokeAndRun("demo/Main", "main", nil)
	if !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("err = %v, want ErrClassNotFound", err)
	}
	if !errors.Is(err, classfile.ErrResolution) {
		t.Errorf("err = %v, want ErrResolution category", err)
	}

	var ee *ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("err %T is not an *ExecError", err)
	}
	if ee.Class != "demo/Main" || ee.Method != "main"+mainDesc || ee.PC != 1 {
		t.Errorf("ExecError = %+v", ee)
	}

	// The caller is untouched and no callee was pushed.
	if e.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", e.Depth())
	}
	top := e.Top()
	if top.Method.Name != "main" || top.PC != 1 {
		t.Errorf("top frame %s pc %d", top.Name(), top.PC)
	}
	if stack := top.Stack(); len(stack) != 1 || stack[0] != IntValue(1) {
		t.Errorf("caller stack = %v, want [1]", stack)
	}
}

func TestInvokestaticMethodNotFound(t *testing.T) {
	util := classtest.New("demo/Util")
	util.StaticMethod("f", "(I)I", 1, 1, 0x1A, 0xAC)

	b := classtest.New("demo/Main")
	ref := int(b.Methodref("demo/Util", "f", "(J)I")) // wrong descriptor
	b.StaticMethod("main", mainDesc, 2, 1, 0x04, 0xB8, hi(ref), lo(ref), 0xB1)

	_, err := NewEngine(lookupOf(b, util)).InvokeAndRun("demo/Main", "main", nil)
	if !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("err = %v, want ErrMethodNotFound", err)
	}
}

func TestInvokestaticRejectsInstanceMethod(t *testing.T) {
	util := classtest.New("demo/Util")
	// int add(int a, int b) { return a + b; } without ACC_STATIC
	util.Method(classfile.AccPublic, "add", "(II)I", util.Code(2, 3, []byte{0x1B, 0x1C, 0x60, 0xAC}))

	b := classtest.New("demo/Main")
	ref := int(b.Methodref("demo/Util", "add", "(II)I"))
	b.StaticMethod("main", mainDesc, 2, 1, 0x04, 0x05, 0xB8, hi(ref), lo(ref), 0xB1)
	e := NewEngine(lookupOf(b, util))

	_, err := e.InvokeAndRun("demo/Main", "main", nil)
	if !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("err = %v, want ErrMethodNotFound", err)
	}
	if e.Depth() != 1 || e.Top().PC != 2 {
		t.Fatalf("depth %d pc %d, want the caller at pc 2", e.Depth(), e.Top().PC)
	}
	if stack := e.Top().Stack(); len(stack) != 2 {
		t.Errorf("caller stack = %v, want both arguments", stack)
	}

	// Entry points must be static too.
	if _, err := e.InvokeAndRun("demo/Util", "add", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("entry on instance method: err = %v", err)
	}
}

func TestLdcRejectsString(t *testing.T) {
	b := classtest.New("demo/Main")
	s := b.StringConst("hello")
	b.StaticMethod("main", mainDesc, 1, 1, 0x12, byte(s), 0xB1)
	e := NewEngine(lookupOf(b))

	_, err := e.InvokeAndRun("demo/Main", "main", nil)
	if !errors.Is(err, classfile.ErrWrongConstantKind) {
		t.Fatalf("err = %v, want ErrWrongConstantKind", err)
	}
	if !errors.Is(err, classfile.ErrResolution) {
		t.Errorf("err = %v, want ErrResolution category", err)
	}
	if e.Steps() != 0 {
		t.Errorf("Steps = %d, want 0", e.Steps())
	}
}

func TestLdcInteger(t *testing.T) {
	b := classtest.New("demo/Main")
	small := b.Integer(100000)
	b.Long(1) // pushes the next index past a wide slot
	wide := b.Integer(-7)
	b.StaticMethod("run", "()I", 2, 0,
		0x12, byte(small),
		0x13, hi(int(wide)), lo(int(wide)),
		// iadd
		0x60,
		0xAC)

	res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Main", "run", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 99993 {
		t.Errorf("ExitCode = %d, want 99993", res.ExitCode)
	}
}

func TestReturnValuePropagates(t *testing.T) {
	util := classtest.New("demo/Util")
	// static int add(int a, int b) { return a + b; }
	util.StaticMethod("add", "(II)I", 2, 2, 0x1A, 0x1B, 0x60, 0xAC)

	b := classtest.New("demo/Main")
	add := int(b.Methodref("demo/Util", "add", "(II)I"))
	// static int main(String[] args) { return add(40, 2) - 1; }
	b.StaticMethod("main", "([Ljava/lang/String;)I", 2, 1,
		// bipush 40
		0x10, 40,
		// iconst_2
		0x05,
		// invokestatic add
		0xB8, hi(add), lo(add),
		// iconst_1
		0x04,
		// isub
		0x64,
		// ireturn
		0xAC)

	e := NewEngine(lookupOf(b, util))
	res, err := e.InvokeAndRun("demo/Main", "main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 41 || res.Value != IntValue(41) {
		t.Errorf("result = %+v, want exit 41", res)
	}
	if res.Steps != 10 {
		t.Errorf("Steps = %d, want 10", res.Steps)
	}
	if e.Depth() != 0 {
		t.Errorf("depth after run = %d", e.Depth())
	}
}

func TestLoopWithBranches(t *testing.T) {
	// static int sum(int n) { int s = 0; for (int i = 1; i <= n; i++) s += i; return s; }
	b := classtest.New("demo/Loop")
	b.StaticMethod("sum", "(I)I", 2, 3,
		// 0: iconst_0
		0x03,
		// 1: istore_1
		0x3C,
		// 2: iconst_1
		0x04,
		// 3: istore_2
		0x3D,
		// 4: iload_2
		0x1C,
		// 5: iload_0
		0x1A,
		// 6: if_icmpgt +13 -> 19
		0xA3, 0x00, 0x0D,
		// 9: iload_1
		0x1B,
		// 10: iload_2
		0x1C,
		// 11: iadd
		0x60,
		// 12: istore_1
		0x3C,
		// 13: iinc 2 1
		0x84, 0x02, 0x01,
		// 16: goto -12 -> 4
		0xA7, 0xFF, 0xF4,
		// 19: iload_1
		0x1B,
		// 20: ireturn
		0xAC)

	tests := []struct {
		arg  string
		want int
	}{
		{"0", 0},
		{"1", 1},
		{"10", 55},
		{"100", 5050},
	}
	e := NewEngine(lookupOf(b))
	for _, tt := range tests {
		res, err := e.InvokeAndRun("demo/Loop", "sum", []string{tt.arg})
		if err != nil {
			t.Fatalf("sum(%s): %v", tt.arg, err)
		}
		if res.ExitCode != tt.want {
			t.Errorf("sum(%s) = %d, want %d", tt.arg, res.ExitCode, tt.want)
		}
	}
}

func TestConditionalBranches(t *testing.T) {
	tests := []struct {
		op   Opcode
		a, b int32
		jump bool
	}{
		{OpIfIcmpeq, 3, 3, true},
		{OpIfIcmpeq, 3, 4, false},
		{OpIfIcmpne, 3, 4, true},
		{OpIfIcmplt, -1, 0, true},
		{OpIfIcmplt, 0, 0, false},
		{OpIfIcmpge, 0, 0, true},
		{OpIfIcmpgt, 5, 4, true},
		{OpIfIcmpgt, 4, 4, false},
		{OpIfIcmple, 4, 4, true},
		{OpIfIcmple, 5, 4, false},
	}
	for _, tt := range tests {
		// push a, push b, branch +5 over "iconst_0 ireturn" to "iconst_1 ireturn"
		b := classtest.New("demo/Cmp")
		b.StaticMethod("cmp", "()I", 2, 0,
			0x11, hi(int(tt.a)), lo(int(tt.a)),
			0x11, hi(int(tt.b)), lo(int(tt.b)),
			byte(tt.op), 0x00, 0x05,
			0x03, 0xAC,
			0x04, 0xAC)
		res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Cmp", "cmp", nil)
		if err != nil {
			t.Fatalf("%s %d %d: %v", tt.op, tt.a, tt.b, err)
		}
		if got := res.ExitCode == 1; got != tt.jump {
			t.Errorf("%s %d %d jumped = %v, want %v", tt.op, tt.a, tt.b, got, tt.jump)
		}
	}
}

func TestUnaryBranches(t *testing.T) {
	tests := []struct {
		op   Opcode
		v    int32
		jump bool
	}{
		{OpIfeq, 0, true},
		{OpIfeq, 1, false},
		{OpIfne, 1, true},
		{OpIflt, -3, true},
		{OpIflt, 0, false},
		{OpIfge, 0, true},
		{OpIfgt, 0, false},
		{OpIfle, 0, true},
	}
	for _, tt := range tests {
		b := classtest.New("demo/If")
		b.StaticMethod("test", "()I", 1, 0,
			0x10, byte(int8(tt.v)),
			byte(tt.op), 0x00, 0x05,
			0x03, 0xAC,
			0x04, 0xAC)
		res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/If", "test", nil)
		if err != nil {
			t.Fatalf("%s %d: %v", tt.op, tt.v, err)
		}
		if got := res.ExitCode == 1; got != tt.jump {
			t.Errorf("%s %d jumped = %v, want %v", tt.op, tt.v, got, tt.jump)
		}
	}
}

func TestStackManipulation(t *testing.T) {
	b := classtest.New("demo/Stack")
	// 7 3 swap -> 3 7; dup -> 3 7 7; pop -> 3 7; isub -> -4; ineg -> 4
	b.StaticMethod("run", "()I", 3, 0,
		0x10, 7, 0x06, 0x5F, 0x59, 0x57, 0x64, 0x74, 0xAC)
	res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Stack", "run", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 4 {
		t.Errorf("ExitCode = %d, want 4", res.ExitCode)
	}
}

func TestIntArithmeticWraps(t *testing.T) {
	b := classtest.New("demo/Wrap")
	big := b.Integer(2147483647)
	b.StaticMethod("run", "()I", 2, 0, 0x12, byte(big), 0x04, 0x60, 0xAC)
	res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Wrap", "run", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != -2147483648 {
		t.Errorf("MAX+1 = %d, want MIN", res.ExitCode)
	}
}

func TestAreturnPassesArgsThrough(t *testing.T) {
	util := classtest.New("demo/Util")
	util.StaticMethod("id", "([Ljava/lang/String;)[Ljava/lang/String;", 1, 1, 0x2A, 0xB0)

	b := classtest.New("demo/Main")
	id := int(b.Methodref("demo/Util", "id", "([Ljava/lang/String;)[Ljava/lang/String;"))
	b.StaticMethod("main", "([Ljava/lang/String;)[Ljava/lang/String;", 1, 2,
		0x2A, 0xB8, hi(id), lo(id), 0x4C, 0x2B, 0xB0)

	res, err := NewEngine(lookupOf(b, util)).InvokeAndRun("demo/Main", "main", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	args, ok := res.Value.Ref.([]string)
	if !ok || len(args) != 2 || args[0] != "a" || args[1] != "b" {
		t.Errorf("Value = %v, want the String[] argument", res.Value)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 for a reference result", res.ExitCode)
	}
}

func TestAconstNullAreturn(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("nothing", "()Ljava/lang/Object;", 1, 0, 0x01, 0xB0)
	res, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Main", "nothing", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Value.IsNull() {
		t.Errorf("Value = %v, want null", res.Value)
	}
}

func TestEntryMethodResolution(t *testing.T) {
	b := classtest.New("demo/Main")
	b.Method(classfile.AccPublic|classfile.AccStatic|classfile.AccNative, "main", mainDesc)
	b.StaticMethod("main", "(I)I", 1, 1, 0x1A, 0xAC)
	e := NewEngine(lookupOf(b))

	// The native overload has no code, so the second "main" is used.
	res, err := e.InvokeAndRun("demo.Main", "main", []string{"12"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 12 {
		t.Errorf("ExitCode = %d, want 12", res.ExitCode)
	}

	if _, err := e.InvokeAndRun("demo/Other", "main", nil); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("missing class err = %v", err)
	}
	if _, err := e.InvokeAndRun("demo/Main", "absent", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("missing method err = %v", err)
	}
}

func TestEntryArguments(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("add", "(II)I", 2, 2, 0x1A, 0x1B, 0x60, 0xAC)
	e := NewEngine(lookupOf(b))

	res, err := e.InvokeAndRun("demo/Main", "add", []string{"-5", "8"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 3 {
		t.Errorf("add(-5, 8) = %d", res.ExitCode)
	}

	for _, args := range [][]string{{"1"}, {"1", "x"}, {"1", "99999999999"}} {
		if _, err := e.InvokeAndRun("demo/Main", "add", args); !errors.Is(err, ErrArgument) {
			t.Errorf("args %v: err = %v, want ErrArgument", args, err)
		}
	}
}

func TestOperandKindMismatch(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("bad", "()I", 2, 1, 0x01, 0x04, 0x60, 0xAC) // null + 1
	_, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Main", "bad", nil)
	if !errors.Is(err, ErrOperandKind) {
		t.Fatalf("err = %v, want ErrOperandKind", err)
	}
}

func TestUnsupportedOpcodeAtRuntime(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("main", mainDesc, 2, 1, 0x04, 0x04, 0x6C, 0xB1) // idiv
	_, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Main", "main", nil)
	if !errors.Is(err, ErrUnsupportedOpcode) {
		t.Fatalf("err = %v, want ErrUnsupportedOpcode", err)
	}
	var ee *ExecError
	if !errors.As(err, &ee) || ee.PC != 2 {
		t.Errorf("err = %v, want failure at pc 2", err)
	}
}

func TestExecErrorReportsLine(t *testing.T) {
	b := classtest.New("demo/Main")
	b.Method(classfile.AccStatic, "main", mainDesc,
		b.Code(1, 1, []byte{0x00, 0x57, 0xB1}, b.LineNumbers(0, 3, 1, 4)))
	_, err := NewEngine(lookupOf(b)).InvokeAndRun("demo/Main", "main", nil)
	var ee *ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v", err)
	}
	if ee.Line != 4 {
		t.Errorf("Line = %d, want 4", ee.Line)
	}
	if !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestFrameOwnsCodeCopy(t *testing.T) {
	b := classtest.New("demo/Main")
	b.StaticMethod("main", mainDesc, 1, 1, 0x03, 0xB1)
	classes := lookupOf(b)
	e := NewEngine(classes)
	if err := e.Invoke("demo/Main", "main", mainDesc, nil); err != nil {
		t.Fatal(err)
	}
	e.Top().Code[0] = 0x04
	if classes["demo/Main"].Methods[0].Code().Code[0] != 0x03 {
		t.Error("frame code aliases the decoded class")
	}
}
