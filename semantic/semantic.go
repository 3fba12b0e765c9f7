// Package semantic recognizes compiler calls among raw process
// executions and carries them through the filtering transformations.
//
// The recognition is an ordered list of interpreters evaluated
// first-match-wins: each interpreter either claims an execution (as a
// compiler call, as deliberately ignored, or as a recognition failure)
// or passes it on to the next one.
package semantic

import (
	"github.com/chisel-build/chisel/types"
)

// PassKind discriminates the compiler pass variants.
type PassKind int

const (
	// Preprocess is a pass that stops before compilation. It carries no
	// source or output and is discarded by the output pipeline.
	Preprocess PassKind = iota
	// Compile is a pass that translates one source file, optionally into
	// a named output.
	Compile
)

// CompilerPass is one phase of a compiler invocation. A single execution
// may produce multiple Compile passes when the compiler was asked to
// compile several sources in one invocation.
type CompilerPass struct {
	Kind   PassKind
	Source string
	Output string
	Flags  []string
}

// CompilerCall is a recognized compiler invocation: the compiler, the
// directory it ran in, and its passes in order.
type CompilerCall struct {
	Compiler   string
	WorkingDir string
	Passes     []CompilerPass
}

// RecognitionKind discriminates interpreter outcomes.
type RecognitionKind int

const (
	// Unknown means the interpreter does not claim this execution.
	Unknown RecognitionKind = iota
	// Success means the execution is a compiler call.
	Success
	// Ignored means the execution was recognized and deliberately
	// excluded; the reason is human readable.
	Ignored
	// Error means the interpreter matched but could not produce a valid
	// compiler call.
	Error
)

// Recognition is the outcome of interpreting one execution.
type Recognition struct {
	Kind   RecognitionKind
	Call   *CompilerCall
	Reason string
}

// Recognized returns a successful recognition.
func Recognized(call CompilerCall) Recognition {
	return Recognition{Kind: Success, Call: &call}
}

// IgnoredBecause returns an ignored recognition with a reason.
func IgnoredBecause(reason string) Recognition {
	return Recognition{Kind: Ignored, Reason: reason}
}

// Failed returns an error recognition with a reason.
func Failed(reason string) Recognition {
	return Recognition{Kind: Error, Reason: reason}
}

// NotRecognized returns an unknown recognition.
func NotRecognized() Recognition {
	return Recognition{Kind: Unknown}
}

// Interpreter maps an execution to a recognition. Implementations must
// not retain the execution.
type Interpreter interface {
	Recognize(execution *types.Execution) Recognition
}

// Any is a set of interpreters where the first non-Unknown result wins.
// The evaluation is done in the order of the interpreters.
type Any struct {
	interpreters []Interpreter
}

// NewAny composes interpreters in priority order.
func NewAny(interpreters ...Interpreter) *Any {
	return &Any{interpreters: interpreters}
}

// Recognize returns the first non-Unknown result.
func (a *Any) Recognize(execution *types.Execution) Recognition {
	for _, interpreter := range a.interpreters {
		result := interpreter.Recognize(execution)
		if result.Kind != Unknown {
			return result
		}
	}
	return NotRecognized()
}
