package cmd

import (
	"fmt"
	"iter"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/semantic"
	"github.com/chisel-build/chisel/types"
)

// CombinedCommand returns the combined command: run the build under
// interception and produce the compilation database in one go.
func CombinedCommand() *cli.Command {
	return &cli.Command{
		Name:  "combined",
		Usage: "Run a build command and generate its compilation database",
		UsageText: `chisel combined --output <db-file> [options] -- <build command>

EXAMPLES:
  # Generate compile_commands.json for a make build
  chisel combined -- make all

  # Merge a second build configuration into the same database
  chisel combined --append -- make debug`,
		Flags: append(CommonFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the compilation database",
				Value:   "compile_commands.json",
			},
			AppendFlag,
			QuietFlag,
		),
		Action: combinedAction,
	}
}

func combinedAction(c *cli.Context) error {
	logger := log.NewLogger("combined", c.Bool("verbose"))
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	buildCommand := c.Args().Slice()
	if len(buildCommand) == 0 {
		return cli.Exit("missing build command; usage: chisel combined [options] -- <build command>", 1)
	}

	pl, err := newPipeline(cfg, c.String("output"), c.Bool("append"), logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// The writer chain runs on its own goroutine, pulling the compiler
	// calls recognized from the envelopes the collector hands over while
	// the build is supervised here.
	analyzed := make(chan semantic.CompilerCall, eventBuffer)
	writerDone := make(chan error, 1)
	go func() {
		err := pl.writer.Run(callsFromChannel(analyzed))
		// Drain so the analyzer never blocks if the writer bailed early.
		for range analyzed {
		}
		writerDone <- err
	}()

	code, err := runUnderInterception(cfg, logger, buildCommand, func(envelope *types.Envelope) {
		execution := envelope.Event.Started.Execution
		if call, ok := pl.analyze(&execution); ok {
			analyzed <- call
		}
	})
	close(analyzed)
	writeErr := <-writerDone

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if writeErr != nil {
		logger.Error("failed to write compilation database", map[string]any{
			"error": writeErr.Error(),
		})
		if code == 0 {
			return cli.Exit(fmt.Sprintf("failed to write compilation database: %v", writeErr), 1)
		}
	}

	if !c.Bool("quiet") {
		fmt.Fprintln(os.Stderr, pl.stats.String())
	}
	return cli.Exit("", code)
}

// callsFromChannel adapts a channel of compiler calls to the writer's
// pull iterator.
func callsFromChannel(calls <-chan semantic.CompilerCall) iter.Seq[semantic.CompilerCall] {
	return func(yield func(semantic.CompilerCall) bool) {
		for call := range calls {
			if !yield(call) {
				return
			}
		}
	}
}
