// Package vmerr provides the structured error taxonomy used across Azimuth's
// loader and execution engine. Every fallible operation in the core returns
// a *Error (or wraps one) rather than a bare string, so callers can branch on
// Phase/Kind without string matching.
package vmerr

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which stage of the pipeline produced the error.
type Phase string

const (
	PhaseParse     Phase = "parse"     // binary image decoding
	PhaseConstruct Phase = "construct" // Runnable / ConstantTable construction
	PhaseDispatch  Phase = "dispatch"  // opcode table lookup
	PhaseExecute   Phase = "execute"   // instruction execution
	PhaseMemory    Phase = "memory"    // heap / allocator operations
)

// Kind categorizes the error within its phase.
type Kind string

const (
	// Loader / parse kinds (tier 1).
	KindTruncated        Kind = "truncated_input"
	KindBadMagic         Kind = "bad_magic"
	KindIndexOutOfRange  Kind = "index_out_of_range"
	KindDuplicateSymbol  Kind = "duplicate_symbol"
	KindUnknownDirective Kind = "unknown_directive"
	KindMissingDirective Kind = "missing_directive"
	KindDuplicateSetup   Kind = "duplicate_setup_directive"
	KindEmptyCode        Kind = "empty_code"
	KindMissingEntry     Kind = "missing_entry_point"
	KindMultipleEntries  Kind = "multiple_entry_points"

	// Execution kinds. KindStackOverflow serves both the engine
	// pre-execution case (initial frame doesn't fit) and the
	// execution-time case (push on a full frame).
	KindOpcodeNotFound     Kind = "opcode_not_found"
	KindIllegalOpcode      Kind = "illegal_opcode"
	KindMissingParams      Kind = "missing_params"
	KindIllegalParam       Kind = "illegal_param"
	KindEmptyStack         Kind = "empty_stack"
	KindStackOverflow      Kind = "stack_overflow"
	KindIndexOutOfBounds   Kind = "index_out_of_bounds"
	KindProgramCounterOver Kind = "program_counter_overflow"

	// Memory kinds.
	KindBadConstraints Kind = "bad_constraints"
	KindBadRequest     Kind = "bad_request"
	KindOutOfMemory    Kind = "out_of_memory"
)

// Error is the single structured error type returned throughout the core.
type Error struct {
	Phase  Phase
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// New builds an Error with an optional printf-style detail message.
func New(phase Phase, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Phase: phase, Kind: kind, Detail: detail}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(phase Phase, kind Kind, cause error, detail string, args ...any) *Error {
	err := New(phase, kind, detail, args...)
	err.Cause = cause
	return err
}

// Token returns the stable textual name used for a non-zero CLI exit:
// the bare Kind string, independent of Phase or Detail.
func Token(err error) string {
	var e *Error
	if As(err, &e) {
		return string(e.Kind)
	}
	return "internal_error"
}

// As walks err's cause chain for an *Error, the only target type callers
// ever extract.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
