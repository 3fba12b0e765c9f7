package cmd

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chisel-build/chisel/iox"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/semantic"
	"github.com/chisel-build/chisel/wire"
)

// SemanticCommand returns the semantic command: consume a recorded
// event log and produce the compilation database.
func SemanticCommand() *cli.Command {
	return &cli.Command{
		Name:  "semantic",
		Usage: "Generate a compilation database from a recorded event log",
		UsageText: `chisel semantic --input <events-file> --output <db-file> [options]

EXAMPLES:
  # Recognize compiler calls from a recorded build
  chisel semantic --input events.json --output compile_commands.json

  # Merge with the entries of a previous run
  chisel semantic --input events.json --output compile_commands.json --append`,
		Flags: append(CommonFlags(),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path of the recorded event log (JSON lines)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the compilation database",
				Value:   "compile_commands.json",
			},
			AppendFlag,
			QuietFlag,
		),
		Action: semanticAction,
	}
}

func semanticAction(c *cli.Context) error {
	logger := log.NewLogger("semantic", c.Bool("verbose"))
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	pl, err := newPipeline(cfg, c.String("output"), c.Bool("append"), logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	input, err := os.Open(c.String("input"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open input file: %v", err), 1)
	}
	defer iox.DiscardClose(input)

	reader := wire.NewEventLogReader(bufio.NewReader(input), logger)
	if err := pl.writer.Run(callsFromEventLog(reader, pl)); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write compilation database: %v", err), 1)
	}

	if !c.Bool("quiet") {
		fmt.Fprintln(os.Stderr, pl.stats.String())
	}
	return nil
}

// callsFromEventLog yields the recognized compiler calls of a recorded
// event log, lazily.
func callsFromEventLog(reader *wire.EventLogReader, pl *pipeline) iter.Seq[semantic.CompilerCall] {
	return func(yield func(semantic.CompilerCall) bool) {
		for {
			envelope, err := reader.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				pl.logger.Error("failed to read event log", map[string]any{
					"error": err.Error(),
				})
				return
			}
			execution := envelope.Event.Started.Execution
			call, ok := pl.analyze(&execution)
			if !ok {
				continue
			}
			if !yield(call) {
				return
			}
		}
	}
}
