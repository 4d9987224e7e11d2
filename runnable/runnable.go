// Package runnable builds Runnable: a validated per-function record
// carrying the required max_stack/max_locals sizes, any residual
// directives, and the function's code.
package runnable

import (
	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// Runnable is a constructed, validated function ready to execute.
type Runnable struct {
	MaxStack  uint16
	MaxLocals uint16
	Residual  []image.Directive // every directive but MaxStack/MaxLocals, in order; the leading Symbol is never among them
	Code      []byte
}

// IsStart reports whether this Runnable's residual directives mark it as
// the program's entry point.
func (r *Runnable) IsStart() bool {
	for _, d := range r.Residual {
		if d.Kind == image.DirStart {
			return true
		}
	}
	return false
}

// FromFunctionInfo constructs a Runnable from a parsed image.FunctionInfo by
// a single left-to-right fold over its directives: the first MaxStack and
// first MaxLocals directives populate the required sizes, a second
// occurrence of either is a construction error, and every other directive
// is appended, in order, to Residual. Both sizes must be present and Code
// must be non-empty, or construction fails.
func FromFunctionInfo(fn *image.FunctionInfo) (*Runnable, error) {
	var maxStack, maxLocals *uint16
	var residual []image.Directive

	for _, d := range fn.Directives {
		switch d.Kind {
		case image.DirMaxStack:
			if maxStack != nil {
				return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindDuplicateSetup, "duplicate max_stack directive")
			}
			v := d.Value
			maxStack = &v
		case image.DirMaxLocals:
			if maxLocals != nil {
				return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindDuplicateSetup, "duplicate max_locals directive")
			}
			v := d.Value
			maxLocals = &v
		default:
			residual = append(residual, d)
		}
	}

	if maxStack == nil {
		return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindMissingDirective, "missing required max_stack directive")
	}
	if maxLocals == nil {
		return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindMissingDirective, "missing required max_locals directive")
	}
	if len(fn.Code) == 0 {
		return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindEmptyCode, "function has no code")
	}

	return &Runnable{
		MaxStack:  *maxStack,
		MaxLocals: *maxLocals,
		Residual:  residual,
		Code:      fn.Code,
	}, nil
}
