// Package types defines the data model shared by the interception,
// recognition and output layers: process executions, the event envelope
// that carries them on the wire, and the environment variable names the
// tool recognizes.
package types

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Execution is a representation of a process execution.
//
// It does not contain information about the outcome of the execution,
// like the exit code or the duration. It only contains the information
// that is necessary to reproduce the execution. Immutable once captured.
type Execution struct {
	// Executable is the absolute path of the program that was executed.
	Executable string `json:"executable"`
	// Arguments is the argument vector; position 0 is conventionally the
	// name the program was invoked as.
	Arguments []string `json:"arguments"`
	// WorkingDir is the absolute working directory at exec time.
	WorkingDir string `json:"working_dir"`
	// Environment is the environment the process was started with.
	Environment map[string]string `json:"environment"`
}

// Capture constructs an Execution from the currently running process:
// canonical executable path, argument vector, working directory and an
// environment snapshot.
func Capture() (Execution, error) {
	executable, err := os.Executable()
	if err != nil {
		return Execution{}, fmt.Errorf("cannot resolve executable path: %w", err)
	}
	workingDir, err := os.Getwd()
	if err != nil {
		return Execution{}, fmt.Errorf("cannot get working directory: %w", err)
	}
	return Execution{
		Executable:  executable,
		Arguments:   append([]string(nil), os.Args...),
		WorkingDir:  workingDir,
		Environment: environToMap(os.Environ()),
	}, nil
}

// WithExecutable returns a copy of the execution with the executable
// field replaced. The argument vector is left untouched.
func (e Execution) WithExecutable(path string) Execution {
	result := e
	result.Executable = path
	return result
}

func (e Execution) String() string {
	return fmt.Sprintf("Execution path=%s, args=[%s]", e.Executable, strings.Join(e.Arguments, ","))
}

// environToMap splits "KEY=value" pairs into a map. The first occurrence
// of a key wins, matching the lookup behavior of getenv.
func environToMap(environ []string) map[string]string {
	result := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := result[key]; !seen {
			result[key] = value
		}
	}
	return result
}

// ReporterId is a unique identifier for a reporter process.
//
// The OS PID is not unique across a single build (PIDs are recycled),
// so reporters generate a fresh identifier once per process.
type ReporterId uint64

// NewReporterId generates a reporter id from random UUID bytes.
func NewReporterId() ReporterId {
	u := uuid.New()
	return ReporterId(binary.BigEndian.Uint64(u[:8]))
}

// ProcessId is the OS identifier of the reporting process at capture time.
type ProcessId uint32

// StartedEvent reports that a process was started. It carries the process
// id and the execution that describes it.
type StartedEvent struct {
	Pid       ProcessId `json:"pid"`
	Execution Execution `json:"execution"`
}

// Event is a relevant life cycle event of a supervised process. Started
// is the only variant currently defined; the envelope decoder rejects
// envelopes where no known variant is present.
type Event struct {
	Started *StartedEvent `json:"started,omitempty"`
}

// Envelope is the on-wire and on-file unit: one event, stamped with the
// reporter identity and the capture time.
type Envelope struct {
	Rid       ReporterId `json:"rid"`
	Timestamp uint64     `json:"timestamp"`
	Event     Event      `json:"event"`
}

// NewEnvelope wraps an event with the reporter id and the current time
// in milliseconds UTC.
func NewEnvelope(rid ReporterId, event Event) Envelope {
	return Envelope{
		Rid:       rid,
		Timestamp: uint64(time.Now().UTC().UnixMilli()),
		Event:     event,
	}
}
