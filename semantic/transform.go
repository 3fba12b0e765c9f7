package semantic

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chisel-build/chisel/log"
)

// PathFormat selects how the pass paths are written to the output.
type PathFormat int

const (
	// PathsAsCaptured leaves paths the way the compiler was invoked.
	PathsAsCaptured PathFormat = iota
	// PathsAbsolute rewrites paths to absolute form.
	PathsAbsolute
	// PathsRelative rewrites paths relative to the working directory,
	// or to FormatRoot when configured.
	PathsRelative
)

// TransformConfig configures the filtering and formatting stages.
type TransformConfig struct {
	// OnlyExistingSources drops calls whose source does not exist after
	// canonicalization.
	OnlyExistingSources bool
	// ExcludeCompilers drops calls whose canonicalized compiler matches.
	ExcludeCompilers []string
	// IncludeRoots keeps only calls whose source lies under one of the
	// roots. Empty means keep all.
	IncludeRoots []string
	// ExcludeRoots drops calls whose source lies under one of the roots.
	ExcludeRoots []string
	// Format selects the output path format.
	Format PathFormat
	// FormatRoot is the base for PathsRelative; empty means the call's
	// working directory.
	FormatRoot string
}

// Transform is the staged filter between recognition and output: path
// canonicalization, compiler exclusion, source-directory scoping and
// path formatting. Each stage may drop a call; drops are logged at info
// level and affect only that call.
type Transform struct {
	config           TransformConfig
	excludeCompilers map[string]struct{}
	logger           *log.Logger
}

// NewTransform builds the transformation pipeline.
func NewTransform(config TransformConfig, logger *log.Logger) *Transform {
	exclude := make(map[string]struct{}, len(config.ExcludeCompilers))
	for _, compiler := range config.ExcludeCompilers {
		exclude[filepath.Clean(compiler)] = struct{}{}
	}
	return &Transform{config: config, excludeCompilers: exclude, logger: logger}
}

// Apply runs the stages over one call. The second return value is false
// when the call was dropped.
func (t *Transform) Apply(call CompilerCall) (CompilerCall, bool) {
	if _, excluded := t.excludeCompilers[absPath(call.Compiler, call.WorkingDir)]; excluded {
		t.logger.Info("call dropped, compiler is excluded", map[string]any{
			"compiler": call.Compiler,
		})
		return call, false
	}

	kept := make([]CompilerPass, 0, len(call.Passes))
	for _, pass := range call.Passes {
		if pass.Kind != Compile {
			kept = append(kept, pass)
			continue
		}
		source := absPath(pass.Source, call.WorkingDir)
		if t.config.OnlyExistingSources && !fileExists(source) {
			t.logger.Info("pass dropped, source does not exist", map[string]any{
				"source": pass.Source,
			})
			continue
		}
		if !t.inScope(source) {
			t.logger.Info("pass dropped, source is out of scope", map[string]any{
				"source": pass.Source,
			})
			continue
		}
		kept = append(kept, t.format(pass, call.WorkingDir))
	}

	if len(kept) == 0 {
		t.logger.Info("call dropped, no pass survived filtering", map[string]any{
			"compiler": call.Compiler,
		})
		return call, false
	}
	call.Passes = kept
	return call, true
}

// inScope checks the include and exclude roots. With no include roots
// configured every source is in scope unless excluded.
func (t *Transform) inScope(source string) bool {
	for _, root := range t.config.ExcludeRoots {
		if underRoot(source, root) {
			return false
		}
	}
	if len(t.config.IncludeRoots) == 0 {
		return true
	}
	for _, root := range t.config.IncludeRoots {
		if underRoot(source, root) {
			return true
		}
	}
	return false
}

// format rewrites the pass paths per the configured path format.
func (t *Transform) format(pass CompilerPass, workingDir string) CompilerPass {
	switch t.config.Format {
	case PathsAbsolute:
		pass.Source = absPath(pass.Source, workingDir)
		if pass.Output != "" {
			pass.Output = absPath(pass.Output, workingDir)
		}
	case PathsRelative:
		root := t.config.FormatRoot
		if root == "" {
			root = workingDir
		}
		pass.Source = relPath(pass.Source, workingDir, root)
		if pass.Output != "" {
			pass.Output = relPath(pass.Output, workingDir, root)
		}
	}
	return pass
}

// absPath resolves path against root when it is relative.
func absPath(path, root string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// relPath rewrites path relative to base, keeping the original form when
// the rewrite is not expressible.
func relPath(path, workingDir, base string) string {
	absolute := absPath(path, workingDir)
	relative, err := filepath.Rel(base, absolute)
	if err != nil {
		return path
	}
	return relative
}

// underRoot reports whether path is inside root.
func underRoot(path, root string) bool {
	relative, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil {
		return false
	}
	return relative == "." || (!strings.HasPrefix(relative, "..") && relative != "")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
