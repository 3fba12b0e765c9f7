package types

import "testing"

func TestRelevantEnv(t *testing.T) {
	relevant := []string{
		KeyDestination, KeyPreloadPath, "PATH", "Path", "path",
		"CC", "CXX", "CPP", "FC", "AR", "AS", "LEX", "YACC",
		"CFLAGS", "CXXFLAGS", "CPPFLAGS", "LDFLAGS",
		"CARGO", "RUSTC", "RUSTC_WRAPPER", "RUSTFLAGS",
		"CPATH", "C_INCLUDE_PATH", "CPLUS_INCLUDE_PATH", "OBJC_INCLUDE_PATH",
	}
	for _, key := range relevant {
		if !RelevantEnv(key) {
			t.Errorf("%q should be relevant", key)
		}
	}

	irrelevant := []string{"HOME", "USER", "TERM", "SHELL", "PWD", "LANG"}
	for _, key := range irrelevant {
		if RelevantEnv(key) {
			t.Errorf("%q should not be relevant", key)
		}
	}
}

func TestFilterRelevant(t *testing.T) {
	input := map[string]string{
		"PATH":           "/usr/bin",
		"CC":             "clang",
		"CFLAGS":         "-O2",
		KeyDestination:   "127.0.0.1:1234",
		"HOME":           "/home/user",
		"XDG_CACHE_HOME": "/home/user/.cache",
	}

	result := FilterRelevant(input)
	for _, key := range []string{"PATH", "CC", "CFLAGS", KeyDestination} {
		if _, ok := result[key]; !ok {
			t.Errorf("%q should be preserved", key)
		}
	}
	for _, key := range []string{"HOME", "XDG_CACHE_HOME"} {
		if _, ok := result[key]; ok {
			t.Errorf("%q should be filtered out", key)
		}
	}
}

func TestProgramEnv(t *testing.T) {
	programs := []string{"CC", "CXX", "FC", "CARGO", "RUSTC"}
	for _, key := range programs {
		if !ProgramEnv(key) {
			t.Errorf("%q names a program", key)
		}
	}

	flags := []string{"CFLAGS", "RUSTFLAGS", "LDFLAGS", "PATH"}
	for _, key := range flags {
		if ProgramEnv(key) {
			t.Errorf("%q does not name a program", key)
		}
	}
}
