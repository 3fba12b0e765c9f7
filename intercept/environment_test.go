//go:build unix

package intercept

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chisel-build/chisel/cli/config"
	"github.com/chisel-build/chisel/types"
)

func envValue(env []string, key string) (string, bool) {
	for _, entry := range env {
		k, v, _ := strings.Cut(entry, "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

func TestNewSession_WrapperMode(t *testing.T) {
	wrapper := writeExecutable(t, t.TempDir(), "chisel-wrapper")

	cfg := &config.Intercept{
		Mode:        config.InterceptWrapper,
		Wrapper:     wrapper,
		Executables: []string{"cc", "c++", "gcc", "g++"},
	}
	session, err := NewSession(cfg, "127.0.0.1:12345", testLogger(t))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	// The wrapper directory leads PATH and holds one link per name.
	pathValue, ok := envValue(session.Environ(), types.KeyPath)
	if !ok {
		t.Fatal("PATH is missing from the session environment")
	}
	wrapperDir := strings.Split(pathValue, string(os.PathListSeparator))[0]
	for _, name := range cfg.Executables {
		link := filepath.Join(wrapperDir, name)
		target, err := os.Readlink(link)
		if err != nil {
			t.Fatalf("cannot read link %s: %v", link, err)
		}
		if target != wrapper {
			t.Errorf("link %s points to %s, want %s", name, target, wrapper)
		}
	}

	if address, _ := envValue(session.Environ(), types.KeyDestination); address != "127.0.0.1:12345" {
		t.Errorf("collector address = %q, want 127.0.0.1:12345", address)
	}

	// Close removes the wrapper directory; a second Close is a no-op.
	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(wrapperDir); !os.IsNotExist(err) {
		t.Errorf("wrapper directory still exists after Close")
	}
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNewSession_PreloadMode(t *testing.T) {
	cfg := &config.Intercept{
		Mode:           config.InterceptPreload,
		PreloadLibrary: "/usr/libexec/chisel/libchisel-preload.so",
	}
	session, err := NewSession(cfg, "127.0.0.1:12345", testLogger(t))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	preload, ok := envValue(session.Environ(), types.KeyPreloadPath)
	if !ok || preload != cfg.PreloadLibrary {
		t.Errorf("%s = %q, want %q", types.KeyPreloadPath, preload, cfg.PreloadLibrary)
	}
	if address, _ := envValue(session.Environ(), types.KeyDestination); address != "127.0.0.1:12345" {
		t.Errorf("collector address = %q, want 127.0.0.1:12345", address)
	}
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Intercept
	}{
		{name: "unknown mode", cfg: config.Intercept{Mode: "trace"}},
		{name: "preload without library", cfg: config.Intercept{Mode: config.InterceptPreload}},
		{name: "wrapper without executable", cfg: config.Intercept{Mode: config.InterceptWrapper}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(&tt.cfg, "127.0.0.1:1", testLogger(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSessionCommand_InheritsPreparedEnvironment(t *testing.T) {
	cfg := &config.Intercept{
		Mode:           config.InterceptPreload,
		PreloadLibrary: "/tmp/libchisel-preload.so",
	}
	session, err := NewSession(cfg, "127.0.0.1:12345", testLogger(t))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	cmd := session.Command([]string{"make", "all"})
	if cmd.Args[0] != "make" || len(cmd.Args) != 2 {
		t.Errorf("command args = %v, want [make all]", cmd.Args)
	}
	if address, _ := envValue(cmd.Env, types.KeyDestination); address != "127.0.0.1:12345" {
		t.Errorf("command env misses the collector address")
	}
}
