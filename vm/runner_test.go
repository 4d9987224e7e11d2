package vm

import (
	"testing"

	"github.com/azimuth-vm/azimuth/dispatch"
	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/stackword"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// entryFunction builds a single-function layout whose one function is the
// Start entry point, with the given sizes and code.
func entryFunction(maxStack, maxLocals uint16, code []byte) *image.FileLayout {
	return &image.FileLayout{
		Version:   1,
		Constants: []image.Constant{{Tag: image.TagString, Str: "main"}},
		Functions: []image.FunctionInfo{
			{
				NameIndex: 0,
				Directives: []image.Directive{
					{Kind: image.DirStart},
					{Kind: image.DirMaxStack, Value: maxStack},
					{Kind: image.DirMaxLocals, Value: maxLocals},
				},
				Code: code,
			},
		},
	}
}

func mustBuild(t *testing.T, layout *image.FileLayout) *Program {
	t.Helper()
	p, err := Build(layout)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestRunNoopProgram(t *testing.T) {
	layout := entryFunction(0, 0, []byte{byte(dispatch.Ret)})
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HasValue {
		t.Errorf("noop program should return without a value, got %+v", result)
	}
}

func TestRunConstantPushAndReturn(t *testing.T) {
	layout := entryFunction(1, 0, []byte{byte(dispatch.IConst3), byte(dispatch.RetVal)})
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasValue || stackword.Int64(result.Value) != 3 {
		t.Errorf("result = %+v, want HasValue=true Value=3", result)
	}
}

func TestRunIntegerArithmetic(t *testing.T) {
	code := []byte{byte(dispatch.IConst2), byte(dispatch.IConst3), byte(dispatch.IAdd), byte(dispatch.RetVal)}
	layout := entryFunction(2, 0, code)
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasValue || stackword.Int64(result.Value) != 5 {
		t.Errorf("result = %+v, want HasValue=true Value=5", result)
	}
}

func TestRunFloatArithmetic(t *testing.T) {
	code := []byte{byte(dispatch.F8Const1), byte(dispatch.F8Const1), byte(dispatch.F8Add), byte(dispatch.RetVal)}
	layout := entryFunction(2, 0, code)
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasValue || result.Value != stackword.FromFloat64(2.0) {
		t.Errorf("result bits = %#x, want %#x", result.Value, stackword.FromFloat64(2.0))
	}
}

func TestRunLocalsRoundTrip(t *testing.T) {
	code := []byte{byte(dispatch.IConst2), byte(dispatch.StArg0), byte(dispatch.LdArg0), byte(dispatch.RetVal)}
	layout := entryFunction(1, 1, code)
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasValue || stackword.Int64(result.Value) != 2 {
		t.Errorf("result = %+v, want HasValue=true Value=2", result)
	}
}

func TestRunIllegalOpcode(t *testing.T) {
	layout := entryFunction(0, 0, []byte{0xFE}) // the reserved directive opcode
	_, err := Run(mustBuild(t, layout), Options{})
	if vmerr.Token(err) != string(vmerr.KindIllegalOpcode) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIllegalOpcode)
	}
}

func TestRunDivideByZero(t *testing.T) {
	code := []byte{byte(dispatch.IConst0), byte(dispatch.IConst0), byte(dispatch.IDiv), byte(dispatch.RetVal)}
	layout := entryFunction(2, 0, code)
	_, err := Run(mustBuild(t, layout), Options{})
	if vmerr.Token(err) != string(vmerr.KindIllegalParam) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIllegalParam)
	}
}

func TestRunConstantPoolString(t *testing.T) {
	layout := &image.FileLayout{
		Version: 1,
		Constants: []image.Constant{
			{Tag: image.TagString, Str: "main"},
			{Tag: image.TagString, Str: "payload"},
		},
		Functions: []image.FunctionInfo{{
			NameIndex: 0,
			Directives: []image.Directive{
				{Kind: image.DirStart},
				{Kind: image.DirMaxStack, Value: 1},
				{Kind: image.DirMaxLocals, Value: 0},
			},
			Code: []byte{byte(dispatch.Const), 1, 0, 0, 0, byte(dispatch.RetVal)},
		}},
	}
	result, err := Run(mustBuild(t, layout), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HasValue || result.Value == 0 {
		t.Errorf("result = %+v, want a non-zero opaque reference", result)
	}
}

func TestRunProgramCounterOverflowOnFallOff(t *testing.T) {
	// A Next result on the final instruction (no following ret) must be
	// reported as ProgramCounterOverflow, not silently accepted.
	layout := entryFunction(0, 0, []byte{byte(dispatch.Nop)})
	_, err := Run(mustBuild(t, layout), Options{})
	if vmerr.Token(err) != string(vmerr.KindProgramCounterOver) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindProgramCounterOver)
	}
}

func TestRunTraceHookIsCalledPerInstruction(t *testing.T) {
	layout := entryFunction(1, 0, []byte{byte(dispatch.IConst3), byte(dispatch.RetVal)})
	var steps []dispatch.Opcode
	trace := traceFunc(func(pc int, op dispatch.Opcode) { steps = append(steps, op) })

	_, err := Run(mustBuild(t, layout), Options{Trace: trace})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(steps) != 2 || steps[0] != dispatch.IConst3 || steps[1] != dispatch.RetVal {
		t.Errorf("steps = %v, want [IConst3, RetVal]", steps)
	}
}

type traceFunc func(pc int, op dispatch.Opcode)

func (f traceFunc) Step(pc int, op dispatch.Opcode) { f(pc, op) }
