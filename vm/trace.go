package vm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so equal traces encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Tracer receives an event after every executed instruction.
type Tracer interface {
	Trace(ev TraceEvent)
}

// TraceEvent describes one executed instruction. Stack is the operand
// stack of the executing frame after the instruction, bottom first.
type TraceEvent struct {
	Step   int      `cbor:"1,keyasint"`
	Depth  int      `cbor:"2,keyasint"`
	Class  string   `cbor:"3,keyasint"`
	Method string   `cbor:"4,keyasint"`
	PC     int      `cbor:"5,keyasint"`
	Opcode string   `cbor:"6,keyasint"`
	Stack  []string `cbor:"7,keyasint"`
}

func (ev TraceEvent) String() string {
	return fmt.Sprintf("%6d %*s%s.%s %04X %-14s %v",
		ev.Step, 2*(ev.Depth-1), "", ev.Class, ev.Method, ev.PC, ev.Opcode, ev.Stack)
}

// Trace is an ordered execution trace.
type Trace []TraceEvent

// EncodeTrace serializes a trace to canonical CBOR.
func EncodeTrace(t Trace) ([]byte, error) {
	data, err := cborEncMode.Marshal([]TraceEvent(t))
	if err != nil {
		return nil, fmt.Errorf("vm: marshal trace: %w", err)
	}
	return data, nil
}

// DecodeTrace deserializes a trace written by EncodeTrace.
func DecodeTrace(data []byte) (Trace, error) {
	var events []TraceEvent
	if err := cbor.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("vm: unmarshal trace: %w", err)
	}
	return Trace(events), nil
}

// Digest returns the hex SHA-256 of the canonical encoding. Two runs of
// the same entry point over the same classes have equal digests.
func (t Trace) Digest() (string, error) {
	data, err := EncodeTrace(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ---------------------------------------------------------------------------
// Recorder
// ---------------------------------------------------------------------------

// Recorder is a Tracer that keeps every event in memory, optionally
// forwarding each one to another Tracer.
type Recorder struct {
	events Trace
	next   Tracer
}

// NewRecorder creates a Recorder. next may be nil.
func NewRecorder(next Tracer) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Trace(ev TraceEvent) {
	r.events = append(r.events, ev)
	if r.next != nil {
		r.next.Trace(ev)
	}
}

// Events returns the recorded trace.
func (r *Recorder) Events() Trace {
	return r.events
}

// Reset discards the recorded events.
func (r *Recorder) Reset() {
	r.events = nil
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(TraceEvent)

func (fn TracerFunc) Trace(ev TraceEvent) {
	fn(ev)
}
