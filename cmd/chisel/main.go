// Package main provides the chisel CLI entrypoint.
//
// Usage:
//
//	chisel <command> [options] [-- <build command>]
//
// The supervised build's exit code is propagated verbatim by the
// intercept and combined commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chisel-build/chisel/cli/cmd"
	"github.com/chisel-build/chisel/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "chisel",
		Usage:          "Generate a JSON compilation database by observing a build",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		// An empty invocation prints usage to stderr and fails; --help
		// keeps the default stdout-and-zero behavior.
		Action: func(c *cli.Context) error {
			c.App.Writer = os.Stderr
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", 1)
		},
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
			c.App.Writer = os.Stderr
			_ = cli.ShowAppHelp(c)
			os.Exit(1)
		},
		Commands: []*cli.Command{
			cmd.InterceptCommand(),
			cmd.SemanticCommand(),
			cmd.CombinedCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit(). This keeps the supervised build's exit code intact.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
