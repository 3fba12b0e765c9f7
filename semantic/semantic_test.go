package semantic

import (
	"testing"

	"github.com/chisel-build/chisel/types"
)

// stub is a canned interpreter for combinator tests.
type stub struct {
	result Recognition
}

func (s stub) Recognize(*types.Execution) Recognition {
	return s.result
}

func TestAny_NoMatch(t *testing.T) {
	sut := NewAny(
		stub{NotRecognized()},
		stub{NotRecognized()},
		stub{NotRecognized()},
	)

	if result := sut.Recognize(execution("/usr/bin/x", "x")); result.Kind != Unknown {
		t.Errorf("Kind = %v, want Unknown", result.Kind)
	}
}

func TestAny_FirstNonUnknownWins(t *testing.T) {
	sut := NewAny(
		stub{NotRecognized()},
		stub{Recognized(CompilerCall{Compiler: "/usr/bin/cc"})},
		stub{Failed("should not be reached")},
	)

	result := sut.Recognize(execution("/usr/bin/x", "x"))
	if result.Kind != Success {
		t.Fatalf("Kind = %v, want Success", result.Kind)
	}
	if result.Call.Compiler != "/usr/bin/cc" {
		t.Errorf("Compiler = %q, want /usr/bin/cc", result.Call.Compiler)
	}
}

func TestAny_ErrorStopsEvaluation(t *testing.T) {
	sut := NewAny(
		stub{NotRecognized()},
		stub{Failed("problem")},
		stub{Recognized(CompilerCall{})},
	)

	result := sut.Recognize(execution("/usr/bin/x", "x"))
	if result.Kind != Error {
		t.Errorf("Kind = %v, want Error", result.Kind)
	}
	if result.Reason != "problem" {
		t.Errorf("Reason = %q, want problem", result.Reason)
	}
}

func TestAny_IgnoredStopsEvaluation(t *testing.T) {
	sut := NewAny(
		stub{IgnoredBecause("excluded")},
		stub{Recognized(CompilerCall{})},
	)

	if result := sut.Recognize(execution("/usr/bin/x", "x")); result.Kind != Ignored {
		t.Errorf("Kind = %v, want Ignored", result.Kind)
	}
}

func TestCreateInterpreter_DefaultCompiler(t *testing.T) {
	sut := CreateInterpreter(InterpreterConfig{})
	input := execution("/usr/bin/cc", "cc", "-c", "-Wall", "main.c")

	if result := sut.Recognize(input); result.Kind != Success {
		t.Errorf("Kind = %v, want Success", result.Kind)
	}
}

func TestCreateInterpreter_KnownNonCompiler(t *testing.T) {
	sut := CreateInterpreter(InterpreterConfig{})
	input := execution("/usr/bin/ls", "ls", "/tmp")

	if result := sut.Recognize(input); result.Kind != Ignored {
		t.Errorf("Kind = %v, want Ignored", result.Kind)
	}
}

func TestCreateInterpreter_UnknownExecutable(t *testing.T) {
	sut := CreateInterpreter(InterpreterConfig{})
	input := execution("/opt/custom/mycc", "mycc", "-c", "main.c")

	if result := sut.Recognize(input); result.Kind != Unknown {
		t.Errorf("Kind = %v, want Unknown", result.Kind)
	}
}

func TestCreateInterpreter_ConfiguredCompiler(t *testing.T) {
	sut := CreateInterpreter(InterpreterConfig{
		CompilersToRecognize: []string{"/opt/custom/mycc"},
	})
	input := execution("/opt/custom/mycc", "mycc", "-c", "main.c")

	if result := sut.Recognize(input); result.Kind != Success {
		t.Errorf("Kind = %v, want Success", result.Kind)
	}
}

// Exclusion outranks recognition.
func TestCreateInterpreter_ExcludedCompiler(t *testing.T) {
	sut := CreateInterpreter(InterpreterConfig{
		CompilersToRecognize: []string{"/usr/bin/clang"},
		CompilersToExclude:   []string{"/usr/bin/clang"},
	})
	input := execution("/usr/bin/clang", "clang", "-c", "main.c")

	if result := sut.Recognize(input); result.Kind != Ignored {
		t.Errorf("Kind = %v, want Ignored", result.Kind)
	}
}

func TestCreateInterpreter_CCEnvironmentSeedsRecognizer(t *testing.T) {
	env := map[string]string{"CC": "/opt/llvm/bin/clang"}
	sut := CreateInterpreter(InterpreterConfig{
		Lookup: func(key string) string { return env[key] },
	})
	input := execution("/opt/llvm/bin/clang", "clang", "-c", "main.c")

	if result := sut.Recognize(input); result.Kind != Success {
		t.Errorf("Kind = %v, want Success", result.Kind)
	}
}
