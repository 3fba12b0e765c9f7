// Package main implements the wrapper around an arbitrary executable.
//
// The wrapper is named after a compiler via a symlink and placed first
// in PATH by the supervisor, so the build invokes it in place of the
// real tool. The wrapper finds the next executable with the same name
// on PATH, reports the execution to the collector, then runs the real
// tool with the same arguments and exits with its exit code.
//
// Reporting failures never fail the execution: the real tool is run
// regardless.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/chisel-build/chisel/intercept"
	"github.com/chisel-build/chisel/ipc"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger("wrapper", os.Getenv("CHISEL_VERBOSE") != "")

	// The executable name the execution was started with: the file name
	// component of the symlink the build invoked.
	if len(os.Args) == 0 || os.Args[0] == "" {
		fmt.Fprintln(os.Stderr, "chisel-wrapper: cannot determine the invoked name")
		return 1
	}
	target := filepath.Base(os.Args[0])

	self, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chisel-wrapper: cannot resolve own path: %v\n", err)
		return 1
	}

	realExecutable, err := intercept.NextInPath(target, os.Getenv(types.KeyPath), self)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chisel-wrapper: %v\n", err)
		return 1
	}
	logger.Debug("executable to call", map[string]any{
		"invoked": target,
		"real":    realExecutable,
	})

	if err := report(realExecutable); err != nil {
		logger.Warn("execution reporting failed", map[string]any{
			"error": err.Error(),
		})
	}

	// Execute the real tool with the original arguments, supervising it
	// so signals reach it and its exit code becomes ours.
	cmd := exec.Command(realExecutable, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	code, err := intercept.Supervise(cmd, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chisel-wrapper: %v\n", err)
		return 1
	}
	return code
}

// report captures the execution with the resolved real path and sends
// it to the collector found in the environment.
func report(realExecutable string) error {
	execution, err := types.Capture()
	if err != nil {
		return err
	}
	execution = execution.WithExecutable(realExecutable)
	execution.Environment = types.FilterRelevant(execution.Environment)

	reporter, err := ipc.NewTCPReporterFromEnv()
	if err != nil {
		return err
	}
	return reporter.Report(types.Event{
		Started: &types.StartedEvent{
			Pid:       types.ProcessId(os.Getpid()),
			Execution: execution,
		},
	})
}
