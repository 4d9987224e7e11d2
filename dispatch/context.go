package dispatch

import (
	"github.com/azimuth-vm/azimuth/constpool"
	"github.com/azimuth-vm/azimuth/heap"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// Context packages a single instruction's inputs for its handler: the
// operand bytes following the opcode, the current stack frame, the
// constant table, and the heap backing any future allocating opcode.
type Context struct {
	Opcode    Opcode
	Params    []byte
	Frame     *stack.Frame
	Constants *constpool.Table
	Heap      *heap.Heap
}

// Pop removes and returns the top of the operand stack.
func (c *Context) Pop() (stack.Word, error) {
	v, ok := c.Frame.Pop()
	if !ok {
		return 0, vmerr.New(vmerr.PhaseExecute, vmerr.KindEmptyStack, "")
	}
	return v, nil
}

// Push writes v to the top of the operand stack.
func (c *Context) Push(v stack.Word) error {
	if !c.Frame.Push(v) {
		return vmerr.New(vmerr.PhaseExecute, vmerr.KindStackOverflow, "")
	}
	return nil
}

// LocalGet reads local variable index.
func (c *Context) LocalGet(index int) (stack.Word, error) {
	v, ok := c.Frame.GetLocal(index)
	if !ok {
		return 0, vmerr.New(vmerr.PhaseExecute, vmerr.KindIndexOutOfBounds, "local index %d", index)
	}
	return v, nil
}

// LocalSet writes value to local variable index, returning its previous
// value.
func (c *Context) LocalSet(index int, value stack.Word) (stack.Word, error) {
	prev, ok := c.Frame.SetLocal(index, value)
	if !ok {
		return 0, vmerr.New(vmerr.PhaseExecute, vmerr.KindIndexOutOfBounds, "local index %d", index)
	}
	return prev, nil
}

// PullParams returns the first count bytes of Params, or MissingParams if
// fewer than count remain. Dispatch already guarantees Params holds at
// least operandByteCount bytes before a handler runs, so this only ever
// fails when a handler asks for more than its own declared operand count.
func (c *Context) PullParams(count int) ([]byte, error) {
	if len(c.Params) < count {
		return nil, vmerr.New(vmerr.PhaseExecute, vmerr.KindMissingParams, "")
	}
	return c.Params[:count], nil
}

// popMany pops n values off the operand stack. Index 0 of the result is
// the most recently pushed (topmost) value.
func popMany(c *Context, n int) ([]stack.Word, error) {
	values := make([]stack.Word, n)
	for i := 0; i < n; i++ {
		v, err := c.Pop()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
