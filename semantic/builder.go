package semantic

// InterpreterConfig selects the compilers to recognize and to exclude.
type InterpreterConfig struct {
	// CompilersToRecognize extends the recognized set beyond the
	// platform default C compiler.
	CompilersToRecognize []string
	// CompilersToExclude drops executions of these paths before any
	// recognizer sees them.
	CompilersToExclude []string
	// Lookup resolves environment variables for compiler detection.
	// The CC and CXX variables extend the recognized set. May be nil.
	Lookup func(key string) string
}

// defaultCompiler is the platform default C compiler.
const defaultCompiler = "/usr/bin/cc"

// CreateInterpreter composes the default interpreter pipeline. Order,
// highest priority first: user-configured exclusions, the known
// non-compiler set, the generic recognizer seeded with the platform
// default compiler (extended by CC/CXX), and generic recognizers for
// each configured compiler path.
func CreateInterpreter(config InterpreterConfig) Interpreter {
	var interpreters []Interpreter

	if len(config.CompilersToExclude) > 0 {
		interpreters = append(interpreters,
			NewIgnoreByPath(config.CompilersToExclude, "compiler marked to ignore by configuration"))
	}
	interpreters = append(interpreters, NewIgnoreNonCompilers())
	interpreters = append(interpreters, NewGeneric(seededCompilers(config.Lookup)))
	if len(config.CompilersToRecognize) > 0 {
		interpreters = append(interpreters, NewGeneric(config.CompilersToRecognize))
	}

	return NewAny(interpreters...)
}

// seededCompilers returns the platform default compiler plus the values
// of the CC and CXX environment variables when set.
func seededCompilers(lookup func(key string) string) []string {
	compilers := []string{defaultCompiler}
	if lookup == nil {
		return compilers
	}
	for _, key := range []string{"CC", "CXX"} {
		if value := lookup(key); value != "" && value != defaultCompiler {
			compilers = append(compilers, value)
		}
	}
	return compilers
}
