package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/jolt/classfile"
	"github.com/tliron/commonlog"
)

// DefaultMaxDepth is the call depth limit when none is configured.
const DefaultMaxDepth = 1024

// ClassLookup finds decoded classes by binary name ("com/example/Main").
// The engine only reads through it.
type ClassLookup interface {
	Class(name string) (*classfile.Class, bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the call depth limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithTracer installs a hook called after every executed instruction.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithLogger replaces the "jolt.vm" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Result is the outcome of a completed run.
type Result struct {
	ExitCode int   // the entry method's int result, else 0
	Value    Value // what the entry method returned; Null for void
	Steps    int   // instructions executed
}

// ---------------------------------------------------------------------------
// Engine: Bytecode execution engine
// ---------------------------------------------------------------------------

// Engine executes methods from the classes of a ClassLookup. It is
// single-threaded; use one Engine per goroutine.
type Engine struct {
	classes  ClassLookup
	maxDepth int
	tracer   Tracer
	log      commonlog.Logger

	frames []*Frame
	steps  int

	result   Value
	returned bool
}

// NewEngine creates an engine with an empty call stack.
func NewEngine(classes ClassLookup, opts ...Option) *Engine {
	e := &Engine{
		classes:  classes,
		maxDepth: DefaultMaxDepth,
		log:      commonlog.GetLogger("jolt.vm"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Depth returns the number of frames on the call stack.
func (e *Engine) Depth() int {
	return len(e.frames)
}

// Top returns the executing frame, or nil when the call stack is empty.
func (e *Engine) Top() *Frame {
	if len(e.frames) == 0 {
		return nil
	}
	return e.frames[len(e.frames)-1]
}

// Steps returns the number of instructions executed so far.
func (e *Engine) Steps() int {
	return e.steps
}

// Result returns the value the bottom frame returned, if it returned one.
func (e *Engine) Result() (Value, bool) {
	return e.result, e.returned
}

// Reset clears the call stack and counters.
func (e *Engine) Reset() {
	e.frames = e.frames[:0]
	e.steps = 0
	e.result = Null
	e.returned = false
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

// Invoke pushes a frame for className.methodName. Dots in className are
// treated as slashes. An empty descriptor matches the first method with
// that name that has code. args fill the locals from slot 0, long and
// double parameters taking two slots.
func (e *Engine) Invoke(className, methodName, descriptor string, args []Value) error {
	class, method, attr, err := e.resolve(className, methodName, descriptor)
	if err != nil {
		return err
	}
	return e.pushFrame(class, method, attr, args)
}

// resolve finds the class and the first matching static method with a
// Code attribute. Instance methods never match. It touches no engine state.
func (e *Engine) resolve(className, methodName, descriptor string) (*classfile.Class, *classfile.Member, *classfile.CodeAttribute, error) {
	name := strings.ReplaceAll(className, ".", "/")
	class, ok := e.classes.Class(name)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	for _, m := range class.FindMethods(methodName) {
		if descriptor != "" && m.Descriptor != descriptor {
			continue
		}
		if !m.AccessFlags.Has(classfile.AccStatic) {
			continue
		}
		if attr := m.Code(); attr != nil {
			return class, m, attr, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("%w: %s.%s%s", ErrMethodNotFound, name, methodName, descriptor)
}

func (e *Engine) pushFrame(class *classfile.Class, method *classfile.Member, attr *classfile.CodeAttribute, args []Value) error {
	if len(e.frames) >= e.maxDepth {
		return fmt.Errorf("%w: %d frames calling %s.%s", ErrCallDepth, len(e.frames), class.ThisClass, method.Name)
	}

	slots := argumentSlots(method.Descriptor, len(args))
	f := newFrame(class, method, attr)
	for i, v := range args {
		if err := f.SetLocal(slots[i], v); err != nil {
			return fmt.Errorf("argument %d of %s: %w", i, f.Name(), err)
		}
	}

	e.frames = append(e.frames, f)
	e.log.Debugf("push %s depth=%d", f.Name(), len(e.frames))
	return nil
}

// argumentSlots maps each of n arguments to its first local slot. When the
// descriptor cannot be parsed or does not match n, arguments are packed one
// per slot.
func argumentSlots(descriptor string, n int) []int {
	slots := make([]int, n)
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil || len(md.Params) != n {
		for i := range slots {
			slots[i] = i
		}
		return slots
	}
	next := 0
	for i, p := range md.Params {
		slots[i] = next
		next += classfile.TypeSlots(p)
	}
	return slots
}

// ---------------------------------------------------------------------------
// Run loop
// ---------------------------------------------------------------------------

// Step advances execution by one unit: a finished top frame is popped
// (delivering any return value), otherwise one instruction is decoded and
// executed. Step on an empty call stack does nothing.
func (e *Engine) Step() error {
	f := e.Top()
	if f == nil {
		return nil
	}
	if f.Done() {
		return e.popFrame()
	}

	inst, err := DecodeInstruction(f.Code, f.PC)
	if err != nil {
		return e.fault(f, f.PC, err)
	}
	depth := len(e.frames)
	if err := e.execute(inst, f); err != nil {
		return e.fault(f, inst.PC, err)
	}
	e.steps++

	if e.tracer != nil {
		e.tracer.Trace(TraceEvent{
			Step:   e.steps,
			Depth:  depth,
			Class:  f.Class.ThisClass,
			Method: f.Method.Name + f.Method.Descriptor,
			PC:     inst.PC,
			Opcode: inst.Op.String(),
			Stack:  stackStrings(f.stack),
		})
	}
	return nil
}

// popFrame removes the finished top frame. A value returned with ireturn
// or areturn goes onto the caller's operand stack, or becomes the run
// result when the bottom frame returns.
func (e *Engine) popFrame() error {
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	e.log.Debugf("pop %s depth=%d", f.Name(), len(e.frames))

	v, ok := f.ReturnValue()
	if !ok {
		return nil
	}
	caller := e.Top()
	if caller == nil {
		e.result, e.returned = v, true
		return nil
	}
	if err := caller.Push(v); err != nil {
		return e.fault(caller, caller.PC, fmt.Errorf("return value of %s: %w", f.Name(), err))
	}
	return nil
}

func (e *Engine) fault(f *Frame, pc int, err error) error {
	return &ExecError{
		Class:  f.Class.ThisClass,
		Method: f.Method.Name + f.Method.Descriptor,
		PC:     pc,
		Line:   f.attr.LineNumber(pc),
		Err:    err,
	}
}

// Run steps until the call stack is empty. On error the frames stay on the
// call stack for inspection.
func (e *Engine) Run() error {
	for len(e.frames) > 0 {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// InvokeAndRun runs className.methodName to completion on a fresh call
// stack. args are converted according to the method's parameter types: a
// String[] parameter receives all of args, int parameters consume one
// argument each, parsed as decimal.
func (e *Engine) InvokeAndRun(className, methodName string, args []string) (Result, error) {
	e.Reset()

	class, method, attr, err := e.resolve(className, methodName, "")
	if err != nil {
		return Result{}, err
	}
	values, err := entryArguments(method.Descriptor, args)
	if err != nil {
		return Result{}, fmt.Errorf("%s.%s: %w", class.ThisClass, method.Name, err)
	}
	e.log.Infof("run %s.%s%s", class.ThisClass, method.Name, method.Descriptor)
	if err := e.pushFrame(class, method, attr, values); err != nil {
		return Result{}, err
	}
	if err := e.Run(); err != nil {
		return Result{Steps: e.steps}, err
	}

	res := Result{Value: e.result, Steps: e.steps}
	if e.returned && e.result.IsInt() {
		res.ExitCode = int(e.result.Int)
	}
	return res, nil
}

func entryArguments(descriptor string, args []string) ([]Value, error) {
	md, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	values := make([]Value, 0, len(md.Params))
	next := 0
	for _, p := range md.Params {
		switch {
		case p == "[Ljava/lang/String;":
			values = append(values, RefValue(append([]string{}, args...)))
		case classfile.IsIntType(p):
			if next >= len(args) {
				return nil, fmt.Errorf("%w: missing value for %s parameter %d", ErrArgument, p, len(values))
			}
			n, err := strconv.ParseInt(args[next], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an int", ErrArgument, args[next])
			}
			next++
			values = append(values, IntValue(int32(n)))
		case classfile.IsReferenceType(p):
			values = append(values, Null)
		default:
			return nil, fmt.Errorf("%w: cannot pass %s parameters", ErrArgument, p)
		}
	}
	return values, nil
}
