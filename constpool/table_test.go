package constpool

import (
	"math"
	"testing"

	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/vmerr"
)

func newFrame(t *testing.T, size int) *stack.Frame {
	t.Helper()
	s := stack.New(size)
	f, ok := s.InitialFrame(0, size)
	if !ok {
		t.Fatalf("InitialFrame(0, %d) failed", size)
	}
	return f
}

func TestPushEntryEachTag(t *testing.T) {
	table := New([]image.Constant{
		{Tag: image.TagInt32, Int32: 7},
		{Tag: image.TagInt64, Int64: 1 << 40},
		{Tag: image.TagFloat32, F32: 1.5},
		{Tag: image.TagFloat64, F64: 2.5},
		{Tag: image.TagString, Str: "hi"},
	})

	tests := []struct {
		index uint32
		want  uint64
	}{
		{0, 7},
		{1, 1 << 40},
		{2, uint64(math.Float32bits(1.5))},
		{3, math.Float64bits(2.5)},
	}

	for _, tt := range tests {
		f := newFrame(t, 1)
		if err := table.PushEntry(f, tt.index); err != nil {
			t.Fatalf("PushEntry(%d): %v", tt.index, err)
		}
		got, ok := f.Pop()
		if !ok || got != tt.want {
			t.Errorf("index %d: got (%d, %v), want (%d, true)", tt.index, got, ok, tt.want)
		}
	}

	// The string constant pushes some non-zero opaque reference rather
	// than a typed value.
	f := newFrame(t, 1)
	if err := table.PushEntry(f, 4); err != nil {
		t.Fatalf("PushEntry(string): %v", err)
	}
	got, _ := f.Pop()
	if got == 0 {
		t.Error("string constant pushed a zero/null reference")
	}
}

func TestPushEntryOutOfRange(t *testing.T) {
	table := New([]image.Constant{{Tag: image.TagInt32, Int32: 1}})
	f := newFrame(t, 1)

	err := table.PushEntry(f, 5)
	if vmerr.Token(err) != string(vmerr.KindIndexOutOfBounds) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindIndexOutOfBounds)
	}
}

func TestPushEntryStackOverflow(t *testing.T) {
	table := New([]image.Constant{{Tag: image.TagInt32, Int32: 1}})
	f := newFrame(t, 0)

	err := table.PushEntry(f, 0)
	if vmerr.Token(err) != string(vmerr.KindStackOverflow) {
		t.Errorf("Token(err) = %q, want %q", vmerr.Token(err), vmerr.KindStackOverflow)
	}
}

func TestLenAndGet(t *testing.T) {
	table := New([]image.Constant{{Tag: image.TagInt32, Int32: 1}, {Tag: image.TagInt32, Int32: 2}})
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if _, ok := table.Get(2); ok {
		t.Error("Get(2) should be out of range for a 2-entry table")
	}
}
