package dispatch

import (
	"testing"

	"github.com/azimuth-vm/azimuth/constpool"
	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/stackword"
	"github.com/azimuth-vm/azimuth/vmerr"
)

func newFrame(t *testing.T, locals, size int) *stack.Frame {
	t.Helper()
	s := stack.New(locals + size)
	f, ok := s.InitialFrame(locals, size)
	if !ok {
		t.Fatalf("InitialFrame(%d, %d) failed", locals, size)
	}
	return f
}

func TestHandlerTableSelfCheck(t *testing.T) {
	for i := range table {
		if table[i].expectedOpcode != Opcode(i) {
			t.Fatalf("table[%d].expectedOpcode = %d, want %d", i, table[i].expectedOpcode, i)
		}
	}
}

func TestExecNop(t *testing.T) {
	f := newFrame(t, 0, 0)
	result, err := ExecInstruction([]byte{byte(Nop)}, f, constpool.New(nil), nil)
	if err != nil {
		t.Fatalf("ExecInstruction: %v", err)
	}
	if result.Kind != Next {
		t.Errorf("Kind = %v, want Next", result.Kind)
	}
}

func TestExecRetVal(t *testing.T) {
	f := newFrame(t, 0, 1)
	f.Push(stackword.FromInt64(3))
	result, err := ExecInstruction([]byte{byte(RetVal)}, f, constpool.New(nil), nil)
	if err != nil {
		t.Fatalf("ExecInstruction: %v", err)
	}
	if result.Kind != Return || !result.HasValue {
		t.Errorf("result = %+v, want Return(true)", result)
	}
}

func TestExecIntegerArithmetic(t *testing.T) {
	f := newFrame(t, 0, 2)
	f.Push(stackword.FromInt64(2))
	f.Push(stackword.FromInt64(3))
	if _, err := ExecInstruction([]byte{byte(IAdd)}, f, constpool.New(nil), nil); err != nil {
		t.Fatalf("IAdd: %v", err)
	}
	v, _ := f.Pop()
	if stackword.Int64(v) != 5 {
		t.Errorf("i.add result = %d, want 5", stackword.Int64(v))
	}
}

func TestExecFloatArithmeticBits(t *testing.T) {
	f := newFrame(t, 0, 2)
	f.Push(stackword.FromFloat64(1.0))
	f.Push(stackword.FromFloat64(1.0))
	if _, err := ExecInstruction([]byte{byte(F8Add)}, f, constpool.New(nil), nil); err != nil {
		t.Fatalf("F8Add: %v", err)
	}
	v, _ := f.Pop()
	if v != stackword.FromFloat64(2.0) {
		t.Errorf("f8.add bits = %#x, want %#x", v, stackword.FromFloat64(2.0))
	}
}

func TestExecLocalsRoundTrip(t *testing.T) {
	f := newFrame(t, 1, 1)
	f.Push(stackword.FromInt64(2))
	constants := constpool.New(nil)

	if _, err := ExecInstruction([]byte{byte(StArg0)}, f, constants, nil); err != nil {
		t.Fatalf("st.arg.0: %v", err)
	}
	result, err := ExecInstruction([]byte{byte(LdArg0)}, f, constants, nil)
	if err != nil {
		t.Fatalf("ld.arg.0: %v", err)
	}
	if result.Kind != Next {
		t.Fatalf("Kind = %v, want Next", result.Kind)
	}
	v, _ := f.Pop()
	if stackword.Int64(v) != 2 {
		t.Errorf("round-tripped local = %d, want 2", stackword.Int64(v))
	}
}

func TestExecIllegalOpcode(t *testing.T) {
	f := newFrame(t, 0, 0)
	_, err := ExecInstruction([]byte{byte(Directive)}, f, constpool.New(nil), nil)
	if vmerr.Token(err) != string(vmerr.KindIllegalOpcode) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIllegalOpcode)
	}

	_, err = ExecInstruction([]byte{200}, f, constpool.New(nil), nil)
	if vmerr.Token(err) != string(vmerr.KindIllegalOpcode) {
		t.Errorf("unassigned opcode: Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIllegalOpcode)
	}
}

func TestExecDivideByZero(t *testing.T) {
	f := newFrame(t, 0, 2)
	f.Push(stackword.FromInt64(10))
	f.Push(stackword.FromInt64(0))
	_, err := ExecInstruction([]byte{byte(IDiv)}, f, constpool.New(nil), nil)
	if vmerr.Token(err) != string(vmerr.KindIllegalParam) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIllegalParam)
	}
}

func TestExecMissingParams(t *testing.T) {
	f := newFrame(t, 0, 0)
	_, err := ExecInstruction([]byte{byte(IConstW)}, f, constpool.New(nil), nil)
	if vmerr.Token(err) != string(vmerr.KindMissingParams) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindMissingParams)
	}
}

func TestExecOpcodeNotFound(t *testing.T) {
	f := newFrame(t, 0, 0)
	_, err := ExecInstruction(nil, f, constpool.New(nil), nil)
	if vmerr.Token(err) != string(vmerr.KindOpcodeNotFound) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindOpcodeNotFound)
	}
}

func TestExecConstantPoolPush(t *testing.T) {
	constants := constpool.New([]image.Constant{{Tag: image.TagInt32, Int32: 99}})
	f := newFrame(t, 0, 1)

	_, err := ExecInstruction([]byte{byte(Const), 0, 0, 0, 0}, f, constants, nil)
	if err != nil {
		t.Fatalf("const: %v", err)
	}
	v, _ := f.Pop()
	if v != 99 {
		t.Errorf("const push = %d, want 99", v)
	}
}

func TestExecShiftsModulo64(t *testing.T) {
	f := newFrame(t, 0, 2)
	f.Push(stackword.FromUint64(1))
	f.Push(stackword.FromUint64(65)) // 65 % 64 == 1
	if _, err := ExecInstruction([]byte{byte(Shl)}, f, constpool.New(nil), nil); err != nil {
		t.Fatalf("shl: %v", err)
	}
	v, _ := f.Pop()
	if v != 2 {
		t.Errorf("1 << (65 %% 64) = %d, want 2", v)
	}
}

func TestExecDupAndSwap(t *testing.T) {
	f := newFrame(t, 0, 3)
	f.Push(1)
	f.Push(2)

	if _, err := ExecInstruction([]byte{byte(Swap)}, f, constpool.New(nil), nil); err != nil {
		t.Fatalf("swap: %v", err)
	}
	top, _ := f.Pop()
	if top != 1 {
		t.Fatalf("after swap, top = %d, want 1", top)
	}
	bottom, _ := f.Pop()
	if bottom != 2 {
		t.Fatalf("after swap, bottom = %d, want 2", bottom)
	}

	f.Push(7)
	if _, err := ExecInstruction([]byte{byte(Dup)}, f, constpool.New(nil), nil); err != nil {
		t.Fatalf("dup: %v", err)
	}
	a, _ := f.Pop()
	b, _ := f.Pop()
	if a != 7 || b != 7 {
		t.Fatalf("dup produced (%d, %d), want (7, 7)", a, b)
	}
}
