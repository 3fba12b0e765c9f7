// Package main builds the preload hook library.
//
// The library is loaded by the dynamic linker ahead of libc in every
// process started under the build:
//
//	go build -buildmode=c-shared -o libchisel-preload.so ./preload
//
// The exec-family overrides live in hook.c: each resolves the real
// symbol through the linker's next-symbol lookup, reports the execution
// through the exported function below, makes sure the preload and
// collector variables survive into the child environment, then invokes
// the real symbol with unchanged arguments. Reporting failures never
// change what the intercepted process observes.
package main

/*
#cgo linux LDFLAGS: -ldl
*/
import "C"

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/chisel-build/chisel/ipc"
	"github.com/chisel-build/chisel/types"
)

//export chiselReportExecution
func chiselReportExecution(path *C.char, argv **C.char, envp **C.char) {
	executable := C.GoString(path)
	arguments := cStringArray(argv)
	environment := environMap(cStringArray(envp))

	workingDir, err := os.Getwd()
	if err != nil {
		return
	}

	destination := environment[types.KeyDestination]
	if destination == "" {
		destination = os.Getenv(types.KeyDestination)
	}
	reporter, err := ipc.NewTCPReporter(destination)
	if err != nil {
		debugf("no collector destination: %v", err)
		return
	}

	execution := types.Execution{
		Executable:  resolveExecutable(executable, workingDir, environment),
		Arguments:   arguments,
		WorkingDir:  workingDir,
		Environment: types.FilterRelevant(environment),
	}
	event := types.Event{
		Started: &types.StartedEvent{
			Pid:       types.ProcessId(os.Getpid()),
			Execution: execution,
		},
	}
	if err := reporter.Report(event); err != nil {
		debugf("execution reporting failed: %v", err)
	}
}

// resolveExecutable canonicalizes the executable path the way the
// kernel will: relative paths resolve against the working directory,
// bare names are searched on the recorded PATH.
func resolveExecutable(executable, workingDir string, environment map[string]string) string {
	if filepath.IsAbs(executable) {
		return filepath.Clean(executable)
	}
	if strings.ContainsRune(executable, os.PathSeparator) {
		return filepath.Join(workingDir, executable)
	}
	for _, dir := range filepath.SplitList(environment[types.KeyPath]) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, executable)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return executable
}

// cStringArray converts a NULL-terminated C string vector.
func cStringArray(array **C.char) []string {
	if array == nil {
		return nil
	}
	var result []string
	for ptr := array; *ptr != nil; ptr = nextPointer(ptr) {
		result = append(result, C.GoString(*ptr))
	}
	return result
}

func nextPointer(ptr **C.char) **C.char {
	return (**C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(ptr)) + unsafe.Sizeof(ptr)))
}

func environMap(environ []string) map[string]string {
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

func debugf(format string, args ...any) {
	if os.Getenv("CHISEL_VERBOSE") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "chisel-preload: "+format+"\n", args...)
}

func main() {}
