// Package vm assembles a parsed image into Runnables and drives the
// fetch-decode-execute loop that runs them.
package vm

import (
	"github.com/azimuth-vm/azimuth/constpool"
	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/runnable"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// Program is a fully constructed, ready-to-run image: every function built
// into a Runnable, its entry point identified, and its constant pool
// materialized.
type Program struct {
	Runnables []*runnable.Runnable
	Entry     *runnable.Runnable
	Constants *constpool.Table
}

// Build constructs a Program from a parsed FileLayout. Every function is
// converted to a Runnable (runnable.FromFunctionInfo); exactly one must
// carry the Start directive, or Build fails.
func Build(layout *image.FileLayout) (*Program, error) {
	runnables := make([]*runnable.Runnable, 0, len(layout.Functions))
	var entry *runnable.Runnable

	for i := range layout.Functions {
		r, err := runnable.FromFunctionInfo(&layout.Functions[i])
		if err != nil {
			return nil, err
		}
		runnables = append(runnables, r)

		if r.IsStart() {
			if entry != nil {
				return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindMultipleEntries, "more than one function carries the start directive")
			}
			entry = r
		}
	}

	if entry == nil {
		return nil, vmerr.New(vmerr.PhaseConstruct, vmerr.KindMissingEntry, "no function carries the start directive")
	}

	return &Program{
		Runnables: runnables,
		Entry:     entry,
		Constants: constpool.New(layout.Constants),
	}, nil
}
