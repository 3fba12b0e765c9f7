package semantic

import (
	"github.com/chisel-build/chisel/types"
)

// IgnoreByPath rejects executions by executable path. Used both for the
// built-in known-non-compiler set and for user-configured exclusions.
type IgnoreByPath struct {
	executables map[string]struct{}
	reason      string
}

// NewIgnoreByPath builds an interpreter that ignores the given
// executable paths with the given reason.
func NewIgnoreByPath(executables []string, reason string) *IgnoreByPath {
	set := make(map[string]struct{}, len(executables))
	for _, executable := range executables {
		set[executable] = struct{}{}
	}
	return &IgnoreByPath{executables: set, reason: reason}
}

// NewIgnoreNonCompilers builds the default interpreter ignoring the
// standard coreutils paths plus make and gmake.
func NewIgnoreNonCompilers() *IgnoreByPath {
	return NewIgnoreByPath(knownNonCompilers, "known non-compiler executable")
}

// Recognize returns Ignored when the executable is in the set.
func (i *IgnoreByPath) Recognize(execution *types.Execution) Recognition {
	if _, ok := i.executables[execution.Executable]; ok {
		return IgnoredBecause(i.reason)
	}
	return NotRecognized()
}

// knownNonCompilers lists the standard coreutils paths, plus make and
// gmake. Executions of these are ignored without looking at arguments.
var knownNonCompilers = []string{
	"/usr/bin/[",
	"/usr/bin/arch",
	"/usr/bin/b2sum",
	"/usr/bin/base32",
	"/usr/bin/base64",
	"/usr/bin/basename",
	"/usr/bin/basenc",
	"/usr/bin/cat",
	"/usr/bin/chcon",
	"/usr/bin/chgrp",
	"/usr/bin/chmod",
	"/usr/bin/chown",
	"/usr/bin/cksum",
	"/usr/bin/comm",
	"/usr/bin/cp",
	"/usr/bin/csplit",
	"/usr/bin/cut",
	"/usr/bin/date",
	"/usr/bin/dd",
	"/usr/bin/df",
	"/usr/bin/dir",
	"/usr/bin/dircolors",
	"/usr/bin/dirname",
	"/usr/bin/du",
	"/usr/bin/echo",
	"/usr/bin/env",
	"/usr/bin/expand",
	"/usr/bin/expr",
	"/usr/bin/factor",
	"/usr/bin/false",
	"/usr/bin/fmt",
	"/usr/bin/fold",
	"/usr/bin/groups",
	"/usr/bin/head",
	"/usr/bin/hostid",
	"/usr/bin/id",
	"/usr/bin/install",
	"/usr/bin/join",
	"/usr/bin/link",
	"/usr/bin/ln",
	"/usr/bin/logname",
	"/usr/bin/ls",
	"/usr/bin/md5sum",
	"/usr/bin/mkdir",
	"/usr/bin/mkfifo",
	"/usr/bin/mknod",
	"/usr/bin/mktemp",
	"/usr/bin/mv",
	"/usr/bin/nice",
	"/usr/bin/nl",
	"/usr/bin/nohup",
	"/usr/bin/nproc",
	"/usr/bin/numfmt",
	"/usr/bin/od",
	"/usr/bin/paste",
	"/usr/bin/pathchk",
	"/usr/bin/pinky",
	"/usr/bin/pr",
	"/usr/bin/printenv",
	"/usr/bin/printf",
	"/usr/bin/ptx",
	"/usr/bin/pwd",
	"/usr/bin/readlink",
	"/usr/bin/realpath",
	"/usr/bin/rm",
	"/usr/bin/rmdir",
	"/usr/bin/runcon",
	"/usr/bin/seq",
	"/usr/bin/sha1sum",
	"/usr/bin/sha224sum",
	"/usr/bin/sha256sum",
	"/usr/bin/sha384sum",
	"/usr/bin/sha512sum",
	"/usr/bin/shred",
	"/usr/bin/shuf",
	"/usr/bin/sleep",
	"/usr/bin/sort",
	"/usr/bin/split",
	"/usr/bin/stat",
	"/usr/bin/stdbuf",
	"/usr/bin/stty",
	"/usr/bin/sum",
	"/usr/bin/sync",
	"/usr/bin/tac",
	"/usr/bin/tail",
	"/usr/bin/tee",
	"/usr/bin/test",
	"/usr/bin/timeout",
	"/usr/bin/touch",
	"/usr/bin/tr",
	"/usr/bin/true",
	"/usr/bin/truncate",
	"/usr/bin/tsort",
	"/usr/bin/tty",
	"/usr/bin/uname",
	"/usr/bin/unexpand",
	"/usr/bin/uniq",
	"/usr/bin/unlink",
	"/usr/bin/users",
	"/usr/bin/vdir",
	"/usr/bin/wc",
	"/usr/bin/who",
	"/usr/bin/whoami",
	"/usr/bin/yes",
	"/usr/bin/make",
	"/usr/bin/gmake",
}
