package semantic

import (
	"strings"

	"github.com/chisel-build/chisel/types"
)

// Generic recognizes a compiler call by executable path and a naive
// argument classification: every argument is a source file, the output
// flag, or an opaque flag. It does not understand compiler-specific
// argument grammars beyond the pass-control and output flags.
type Generic struct {
	executables map[string]struct{}
}

// NewGeneric builds a recognizer for the given compiler paths.
func NewGeneric(compilers []string) *Generic {
	executables := make(map[string]struct{}, len(compilers))
	for _, compiler := range compilers {
		executables[compiler] = struct{}{}
	}
	return &Generic{executables: executables}
}

// stopPoint captures the earliest phase a pass-control flag stops the
// compiler at.
type stopPoint int

const (
	stopNowhere stopPoint = iota // no stop flag, a link was requested
	stopBeforeLink
	stopBeforeCompile
)

// Recognize classifies the execution's arguments. Each source file
// becomes its own Compile pass sharing a common flag set; the output
// flag is consumed into the pass output; pass-control flags select the
// pass kind and are not carried into the flag set.
func (g *Generic) Recognize(execution *types.Execution) Recognition {
	if _, ok := g.executables[execution.Executable]; !ok {
		return NotRecognized()
	}

	var (
		stop    stopPoint
		sources []string
		output  string
		flags   []string
	)

	arguments := execution.Arguments
	for i := 1; i < len(arguments); i++ {
		argument := arguments[i]
		switch {
		case argument == "-c" || argument == "-S":
			if stop < stopBeforeLink {
				stop = stopBeforeLink
			}
		case argument == "-E" || argument == "-M" || argument == "-MM":
			stop = stopBeforeCompile
		case argument == "-o":
			if i+1 >= len(arguments) {
				return Failed("output flag without argument")
			}
			i++
			output = arguments[i]
		case strings.HasPrefix(argument, "-o") && len(argument) > 2:
			output = argument[2:]
		case looksLikeSourceFile(argument):
			sources = append(sources, argument)
		case !strings.HasPrefix(argument, flagPrefix) && isBinaryFile(argument):
			// Object files and libraries are linker inputs, not sources.
			// A call whose inputs are all linker inputs is not a compile.
			continue
		default:
			flags = append(flags, argument)
		}
	}

	if len(sources) == 0 {
		return Failed("source file is not found")
	}

	call := CompilerCall{
		Compiler:   execution.Executable,
		WorkingDir: execution.WorkingDir,
	}
	switch stop {
	case stopBeforeCompile:
		call.Passes = []CompilerPass{{Kind: Preprocess}}
	case stopBeforeLink:
		for _, source := range sources {
			call.Passes = append(call.Passes, CompilerPass{
				Kind:   Compile,
				Source: source,
				Output: output,
				Flags:  flags,
			})
		}
	case stopNowhere:
		// A link was requested. Still emit one compile pass per source,
		// omitting the output path: it names the linked binary, not an
		// object file.
		for _, source := range sources {
			call.Passes = append(call.Passes, CompilerPass{
				Kind:   Compile,
				Source: source,
				Flags:  flags,
			})
		}
	}
	return Recognized(call)
}
