package semantic

import (
	"path/filepath"
	"strings"
)

// sourceExtensions is the set of file extensions recognized as compiler
// inputs: C and C++ families, Objective-C, preprocessed forms, headers,
// assembler, Fortran, CUDA, Go, BRIG, D and Ada.
var sourceExtensions = map[string]struct{}{
	// header files
	"h": {}, "hh": {}, "H": {}, "hp": {}, "hxx": {}, "hpp": {}, "HPP": {}, "h++": {}, "tcc": {},
	// C
	"c": {}, "C": {},
	// C++
	"cc": {}, "CC": {}, "c++": {}, "C++": {}, "cxx": {}, "cpp": {}, "cp": {},
	// CUDA
	"cu": {},
	// Objective-C
	"m": {}, "mi": {}, "mm": {}, "M": {}, "mii": {},
	// Preprocessed
	"i": {}, "ii": {},
	// Assembly
	"s": {}, "S": {}, "sx": {}, "asm": {},
	// Fortran
	"f": {}, "for": {}, "ftn": {},
	"F": {}, "FOR": {}, "fpp": {}, "FPP": {}, "FTN": {},
	"f90": {}, "f95": {}, "f03": {}, "f08": {},
	"F90": {}, "F95": {}, "F03": {}, "F08": {},
	// Go
	"go": {},
	// BRIG
	"brig": {},
	// D
	"d": {}, "di": {}, "dd": {},
	// Ada
	"ads": {}, "abd": {},
}

// binaryExtensions marks linker inputs: object files and libraries.
// Matched case-insensitively.
var binaryExtensions = map[string]struct{}{
	"o": {}, "a": {}, "lib": {}, "so": {}, "dylib": {}, "dll": {},
}

// looksLikeSourceFile reports whether the argument names a compiler
// input file. Extension matching is case sensitive: .C is C++, .c is C.
func looksLikeSourceFile(argument string) bool {
	if strings.HasPrefix(argument, flagPrefix) {
		return false
	}
	dot := strings.LastIndexByte(argument, '.')
	if dot < 0 {
		return false
	}
	_, ok := sourceExtensions[argument[dot+1:]]
	return ok
}

// isBinaryFile reports whether the path refers to a binary artifact
// (object file or library). Binary files are inputs to the linker, not
// to the compiler.
func isBinaryFile(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	_, ok := binaryExtensions[strings.ToLower(ext[1:])]
	return ok
}
