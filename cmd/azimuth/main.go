package main

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/azimuth-vm/azimuth/dispatch"
	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/vm"
	"github.com/azimuth-vm/azimuth/vmerr"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [--maxstack N] [-v|-vv] <image-file>\n", os.Args[0])
}

// config holds the parsed command line, built by a hand-rolled argv loop.
type config struct {
	maxStack int
	verbose  int
	path     string
}

func parseArgs(args []string) (config, error) {
	cfg := config{maxStack: vm.DefaultStackCapacity}
	pathSet := false

	i := 0
	for i < len(args) {
		switch {
		case args[i] == "--maxstack":
			if i+1 >= len(args) {
				return config{}, fmt.Errorf("--maxstack requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return config{}, fmt.Errorf("--maxstack value %q is not a positive integer", args[i+1])
			}
			cfg.maxStack = n
			i += 2

		case args[i] == "-v":
			cfg.verbose = 1
			i++

		case args[i] == "-vv":
			cfg.verbose = 2
			i++

		default:
			if pathSet {
				return config{}, fmt.Errorf("unexpected extra argument %q: image file already set to %q", args[i], cfg.path)
			}
			cfg.path = args[i]
			pathSet = true
			i++
		}
	}

	if !pathSet {
		return config{}, fmt.Errorf("missing image file argument")
	}
	return cfg, nil
}

func newLogger(verbose int) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	switch {
	case verbose >= 2:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case verbose == 1:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		// zap's own construction failing means stderr logging isn't even
		// available; fall back to a logger that writes nowhere rather than
		// panicking over a diagnostics-only failure.
		return zap.NewNop()
	}
	return logger
}

// stepTrace adapts a zap logger to vm.Trace for -vv instruction-level
// diagnostics, logging each opcode and a running step counter.
type stepTrace struct {
	log   *zap.Logger
	steps int
}

func (t *stepTrace) Step(pc int, opcode dispatch.Opcode) {
	t.steps++
	t.log.Debug("step", zap.Int("pc", pc), zap.Uint8("opcode", uint8(opcode)), zap.Int("count", t.steps))
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return fmt.Errorf("no arguments given")
	}

	cfg, err := parseArgs(args)
	if err != nil {
		usage()
		return err
	}

	logger := newLogger(cfg.verbose)
	defer logger.Sync()

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		return err
	}

	layout, err := image.Parse(data)
	if err != nil {
		return err
	}
	logger.Info("image parsed",
		zap.Int("constants", len(layout.Constants)),
		zap.Int("functions", len(layout.Functions)))

	program, err := vm.Build(layout)
	if err != nil {
		return err
	}

	opts := vm.Options{StackCapacity: cfg.maxStack}
	if cfg.verbose >= 2 {
		opts.Trace = &stepTrace{log: logger}
	}

	result, err := vm.Run(program, opts)
	if err != nil {
		return err
	}

	if result.HasValue {
		logger.Info("run complete", zap.Uint64("return_value", result.Value))
	} else {
		logger.Info("run complete")
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", vmerr.Token(err))
		os.Exit(1)
	}
}
