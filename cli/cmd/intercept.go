package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chisel-build/chisel/cli/config"
	"github.com/chisel-build/chisel/intercept"
	"github.com/chisel-build/chisel/iox"
	"github.com/chisel-build/chisel/ipc"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/types"
	"github.com/chisel-build/chisel/wire"
)

// eventBuffer bounds the collector-to-consumer channel. When the
// consumer falls behind, in-flight connection handlers block on the
// send instead of growing memory.
const eventBuffer = 64

// InterceptCommand returns the intercept command: run the build under
// interception and record the raw execution events.
func InterceptCommand() *cli.Command {
	return &cli.Command{
		Name:  "intercept",
		Usage: "Run a build command and record the process executions beneath it",
		UsageText: `chisel intercept --output <events-file> [options] -- <build command>

EXAMPLES:
  # Record the executions of a make build
  chisel intercept --output events.json -- make all

  # Record with the preload hook instead of PATH wrappers
  chisel intercept --output events.json --config chisel.yaml -- ninja`,
		Flags: append(CommonFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the recorded event log (JSON lines)",
				Value:   "events.json",
			},
		),
		Action: interceptAction,
	}
}

func interceptAction(c *cli.Context) error {
	logger := log.NewLogger("intercept", c.Bool("verbose"))
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	buildCommand := c.Args().Slice()
	if len(buildCommand) == 0 {
		return cli.Exit("missing build command; usage: chisel intercept [options] -- <build command>", 1)
	}

	outputFile, err := os.Create(c.String("output"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create output file: %v", err), 1)
	}
	defer iox.DiscardClose(outputFile)
	buffered := bufio.NewWriter(outputFile)
	eventLog := wire.NewEventLogWriter(buffered)

	code, err := runUnderInterception(cfg, logger, buildCommand, func(envelope *types.Envelope) {
		if err := eventLog.Write(envelope); err != nil {
			logger.Error("failed to write event", map[string]any{
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := buffered.Flush(); err != nil {
		return cli.Exit(fmt.Sprintf("failed to flush output file: %v", err), 1)
	}
	return cli.Exit("", code)
}

// runUnderInterception wires the collector, the intercept session and
// the supervisor together: the build command runs with the interception
// environment while consume receives every captured envelope. Returns
// the build's exit code.
func runUnderInterception(
	cfg *config.Config,
	logger *log.Logger,
	buildCommand []string,
	consume func(envelope *types.Envelope),
) (int, error) {
	collector, err := ipc.NewCollector(logger)
	if err != nil {
		return 0, fmt.Errorf("failed to create the collector: %w", err)
	}

	events := make(chan types.Envelope, eventBuffer)
	collectDone := make(chan error, 1)
	go func() {
		collectDone <- collector.Collect(events)
	}()
	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		for envelope := range events {
			consume(&envelope)
		}
	}()

	resolveInterceptArtifacts(&cfg.Intercept)
	session, err := intercept.NewSession(&cfg.Intercept, collector.Address(), logger)
	if err != nil {
		collector.Stop()
		<-collectDone
		<-consumeDone
		return 0, fmt.Errorf("failed to create the intercept environment: %w", err)
	}
	defer func() { _ = session.Close() }()

	code, err := intercept.Supervise(session.Command(buildCommand), logger)

	// Tear down the listener, then drain the in-flight envelopes.
	collector.Stop()
	if collectErr := <-collectDone; collectErr != nil {
		logger.Error("collector failed", map[string]any{
			"error": collectErr.Error(),
		})
	}
	<-consumeDone

	if err != nil {
		return 0, fmt.Errorf("failed to execute the build command: %w", err)
	}
	return code, nil
}
