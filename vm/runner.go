package vm

import (
	"github.com/azimuth-vm/azimuth/dispatch"
	"github.com/azimuth-vm/azimuth/heap"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// Trace is an optional diagnostic hook a caller can supply to observe
// every instruction the Runner executes. It has no effect on control flow;
// nil Trace values (via Options.Trace) are replaced with a no-op.
type Trace interface {
	Step(pc int, opcode dispatch.Opcode)
}

type noopTrace struct{}

func (noopTrace) Step(int, dispatch.Opcode) {}

// DefaultStackCapacity is the fallback operand/locals word budget used
// when a caller doesn't request a specific one.
const DefaultStackCapacity = 1024

// DefaultHeapCapacity is the fallback byte size of the heap provisioned
// alongside the Stack when a caller doesn't request a specific one.
const DefaultHeapCapacity = 1 << 20

// Options configures a single run-to-completion invocation.
type Options struct {
	// StackCapacity bounds the backing Stack's total word count. Zero
	// selects DefaultStackCapacity.
	StackCapacity int
	// HeapCapacity bounds the backing Heap's total byte reservation. Zero
	// selects DefaultHeapCapacity.
	HeapCapacity uintptr
	// Trace, if non-nil, is notified before every instruction executes.
	Trace Trace
}

// Result is what a completed run produced: the Return outcome, with the
// returned word already read off the stack before the frame went out of
// scope.
type Result struct {
	HasValue bool
	Value    uint64
}

// Run executes program's entry point to completion via fetch-decode-execute:
// trace, dispatch, advance or jump or return. It returns the first error
// any instruction produces, unmodified.
func Run(program *Program, opts Options) (Result, error) {
	trace := opts.Trace
	if trace == nil {
		trace = noopTrace{}
	}
	capacity := opts.StackCapacity
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	heapCapacity := opts.HeapCapacity
	if heapCapacity == 0 {
		heapCapacity = DefaultHeapCapacity
	}

	h, err := heap.NewHeap(heapCapacity)
	if err != nil {
		return Result{}, err
	}
	defer h.Close()

	entry := program.Entry
	st := stack.New(capacity)
	frame, ok := st.InitialFrame(int(entry.MaxLocals), int(entry.MaxStack))
	if !ok {
		return Result{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindStackOverflow, "initial frame (locals=%d, stack=%d) does not fit capacity %d", entry.MaxLocals, entry.MaxStack, capacity)
	}

	code := entry.Code
	pc := 0
	for {
		trace.Step(pc, dispatch.Opcode(code[pc]))

		result, err := dispatch.ExecInstruction(code[pc:], frame, program.Constants, h)
		if err != nil {
			return Result{}, err
		}

		switch result.Kind {
		case dispatch.Next:
			next := pc + 1 + dispatch.OperandByteCount(code[pc])
			if next >= len(code) {
				return Result{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindProgramCounterOver, "pc %d overruns code of length %d", next, len(code))
			}
			pc = next

		case dispatch.Jump:
			if result.Target >= len(code) {
				return Result{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindProgramCounterOver, "jump target %d overruns code of length %d", result.Target, len(code))
			}
			pc = result.Target

		case dispatch.Return:
			if !result.HasValue {
				return Result{}, nil
			}
			v, ok := frame.Peek()
			if !ok {
				return Result{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindEmptyStack, "ret.val with empty operand stack")
			}
			return Result{HasValue: true, Value: v}, nil
		}
	}
}
