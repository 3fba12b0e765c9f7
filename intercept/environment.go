package intercept

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chisel-build/chisel/cli/config"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/types"
)

// Session is the prepared environment a build command runs under. It is
// a scoped resource: Close must run on every exit path so the wrapper
// link directory does not leak.
type Session struct {
	env        []string
	wrapperDir string
	logger     *log.Logger
}

// NewSession prepares the interception environment. In preload mode the
// dynamic linker is instructed to load the hook library ahead of libc in
// every process of the build. In wrapper mode a private directory of
// compiler-named symlinks is created and prepended to PATH.
func NewSession(cfg *config.Intercept, address string, logger *log.Logger) (*Session, error) {
	session := &Session{logger: logger}

	env := environWithout(types.KeyDestination, types.KeyPreloadPath)
	env = append(env, types.KeyDestination+"="+address)

	switch cfg.Mode {
	case config.InterceptPreload:
		preload := cfg.PreloadLibrary
		if preload == "" {
			return nil, fmt.Errorf("preload mode requires the preload library path")
		}
		env = append(env, types.KeyPreloadPath+"="+preload)

	case config.InterceptWrapper:
		wrapper := cfg.Wrapper
		if wrapper == "" {
			return nil, fmt.Errorf("wrapper mode requires the wrapper executable path")
		}
		dir, err := createWrapperDir(wrapper, cfg.Executables)
		if err != nil {
			return nil, err
		}
		session.wrapperDir = dir
		env = prependPath(env, dir)
		logger.Debug("wrapper directory created", map[string]any{
			"directory":   dir,
			"executables": cfg.Executables,
		})

	default:
		return nil, fmt.Errorf("unknown intercept mode: %q", cfg.Mode)
	}

	session.env = env
	return session, nil
}

// Command builds the supervised build command with the session
// environment. Stdio is inherited so the build output stays untouched.
func (s *Session) Command(arguments []string) *exec.Cmd {
	cmd := exec.Command(arguments[0], arguments[1:]...)
	cmd.Env = s.env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Environ returns the prepared environment of the session.
func (s *Session) Environ() []string {
	return s.env
}

// Close removes the wrapper link directory if one was created.
func (s *Session) Close() error {
	if s.wrapperDir == "" {
		return nil
	}
	dir := s.wrapperDir
	s.wrapperDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cannot remove wrapper directory %s: %w", dir, err)
	}
	return nil
}

// createWrapperDir creates a private directory with one symlink per
// shadowed tool name, all pointing at the wrapper executable.
func createWrapperDir(wrapper string, executables []string) (string, error) {
	wrapperPath, err := filepath.Abs(wrapper)
	if err != nil {
		return "", fmt.Errorf("cannot resolve wrapper path: %w", err)
	}

	dir, err := os.MkdirTemp("", "chisel-wrappers-")
	if err != nil {
		return "", fmt.Errorf("cannot create wrapper directory: %w", err)
	}
	for _, name := range executables {
		link := filepath.Join(dir, filepath.Base(name))
		if err := os.Symlink(wrapperPath, link); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("cannot create wrapper link %s: %w", link, err)
		}
	}
	return dir, nil
}

// environWithout snapshots the current environment minus the given keys.
func environWithout(keys ...string) []string {
	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[key] = struct{}{}
	}
	var result []string
	for _, entry := range os.Environ() {
		key, _, _ := strings.Cut(entry, "=")
		if _, skip := drop[key]; skip {
			continue
		}
		result = append(result, entry)
	}
	return result
}

// prependPath puts dir at the front of the PATH entry, adding one if the
// environment has none.
func prependPath(env []string, dir string) []string {
	for i, entry := range env {
		key, value, _ := strings.Cut(entry, "=")
		if key == types.KeyPath {
			env[i] = key + "=" + dir + string(os.PathListSeparator) + value
			return env
		}
	}
	return append(env, types.KeyPath+"="+dir)
}
