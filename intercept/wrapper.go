package intercept

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NextInPath walks the PATH entries in order and returns the first
// regular executable file named target that is not the wrapper itself.
//
// Candidates are compared by canonicalized path: the shadowing directory
// may appear more than once in PATH, and a tie against the wrapper's own
// path must be rejected, not merely de-prioritized.
func NextInPath(target, pathVar, self string) (string, error) {
	selfResolved, err := filepath.EvalSymlinks(self)
	if err != nil {
		return "", fmt.Errorf("cannot canonicalize wrapper path %s: %w", self, err)
	}

	for _, dir := range strings.Split(pathVar, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, target)
		if !isExecutableFile(candidate) {
			continue
		}
		resolved, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			continue
		}
		if resolved == selfResolved {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("cannot find the real %s executable in PATH", target)
}

// isExecutableFile reports whether path is a regular file with an
// execute bit set.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
