// Package intercept sets up the environment a build runs under and
// supervises the build process: signals are forwarded to the child, its
// exit status is harvested, and the interception hooks (preload library
// or PATH-shadowing wrappers) are installed and torn down.
package intercept

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/chisel-build/chisel/log"
)

// pollInterval bounds how long shutdown lags behind child exit.
const pollInterval = 100 * time.Millisecond

// Supervise starts the command, forwards received signals to it, waits
// for it and returns its exit code.
//
// A normal exit returns the child's code. Termination by signal returns 1.
// A failure to start the command is a supervision error.
//
// The signal forwarding runs on its own goroutine; the calling goroutine
// polls a shared running flag so shutdown stays prompt.
func Supervise(cmd *exec.Cmd, logger *log.Logger) (int, error) {
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start build command: %w", err)
	}

	var running atomic.Bool
	running.Store(true)

	signals := make(chan os.Signal, 16)
	signal.Notify(signals, forwardedSignals()...)
	// Stop guarantees no further sends, so closing afterwards is safe and
	// lets the forwarding goroutine exit.
	defer close(signals)
	defer signal.Stop(signals)

	go func() {
		for sig := range signals {
			logger.Debug("received signal", map[string]any{
				"signal": sig.String(),
			})
			forwardSignal(cmd, sig, logger)
		}
	}()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		running.Store(false)
	}()

	for running.Load() {
		time.Sleep(pollInterval)
	}
	err := <-waitErr

	return exitCode(err)
}

// forwardSignal delivers the signal to the child. Failures are expected
// around child exit and only logged.
func forwardSignal(cmd *exec.Cmd, sig os.Signal, logger *log.Logger) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			logger.Debug("child is gone, signal not forwarded", map[string]any{
				"signal": sig.String(),
			})
			return
		}
		logger.Error("error forwarding signal", map[string]any{
			"signal": sig.String(),
			"error":  err.Error(),
		})
	}
}

// exitCode translates the wait result: normal exit with code c returns c,
// termination by signal returns 1.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 1, nil
			}
			return status.ExitStatus(), nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("waiting for build command failed: %w", err)
}
