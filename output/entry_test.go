package output

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestEntry_MarshalArrayForm(t *testing.T) {
	entry := Entry{
		Directory: "/home/user",
		File:      "/home/user/main.c",
		Arguments: []string{"/usr/bin/cc", "-Wall", "-o", "main.o", "main.c"},
		Output:    "/home/user/main.o",
	}

	encoded, err := marshalEntry(entry, true, false)
	if err != nil {
		t.Fatalf("marshalEntry failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if _, hasCommand := decoded["command"]; hasCommand {
		t.Error("array form must not carry a command field")
	}
	if _, hasArguments := decoded["arguments"]; !hasArguments {
		t.Error("array form must carry an arguments field")
	}
	if decoded["output"] != "/home/user/main.o" {
		t.Errorf("output = %v, want /home/user/main.o", decoded["output"])
	}
}

func TestEntry_MarshalCommandForm(t *testing.T) {
	entry := Entry{
		Directory: "/home/user",
		File:      "/home/user/main.c",
		Arguments: []string{"/usr/bin/cc", "-DNAME=John Doe", "main.c"},
	}

	encoded, err := marshalEntry(entry, false, false)
	if err != nil {
		t.Fatalf("marshalEntry failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if _, hasArguments := decoded["arguments"]; hasArguments {
		t.Error("command form must not carry an arguments field")
	}
	command, _ := decoded["command"].(string)
	if !strings.Contains(command, "/usr/bin/cc") {
		t.Errorf("command %q misses the compiler", command)
	}
	// The embedded space must survive a shell split.
	if !strings.Contains(command, "John") {
		t.Errorf("command %q lost the quoted argument", command)
	}
}

func TestEntry_MarshalDropsEmptyOutput(t *testing.T) {
	entry := Entry{
		Directory: "/home/user",
		File:      "/home/user/main.c",
		Arguments: []string{"cc", "main.c"},
	}

	encoded, err := marshalEntry(entry, true, false)
	if err != nil {
		t.Fatalf("marshalEntry failed: %v", err)
	}
	if strings.Contains(string(encoded), "output") {
		t.Errorf("entry without output serialized one: %s", encoded)
	}
}

func TestEntry_UnmarshalForms(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Entry
		wantErr bool
	}{
		{
			name: "array form",
			input: `{"directory": "/p", "file": "/p/main.c",
			         "arguments": ["cc", "-c", "main.c"], "output": "/p/main.o"}`,
			want: Entry{
				Directory: "/p",
				File:      "/p/main.c",
				Arguments: []string{"cc", "-c", "main.c"},
				Output:    "/p/main.o",
			},
		},
		{
			name:  "command form",
			input: `{"directory": "/p", "file": "/p/main.c", "command": "cc -c main.c"}`,
			want: Entry{
				Directory: "/p",
				File:      "/p/main.c",
				Arguments: []string{"cc", "-c", "main.c"},
			},
		},
		{
			name:  "command form with quotes",
			input: `{"directory": "/p", "file": "/p/main.c", "command": "cc '-DNAME=John Doe' main.c"}`,
			want: Entry{
				Directory: "/p",
				File:      "/p/main.c",
				Arguments: []string{"cc", "-DNAME=John Doe", "main.c"},
			},
		},
		{
			name:    "both forms is malformed",
			input:   `{"directory": "/p", "file": "m.c", "command": "cc", "arguments": ["cc"]}`,
			wantErr: true,
		},
		{
			name:    "neither form is malformed",
			input:   `{"directory": "/p", "file": "m.c"}`,
			wantErr: true,
		},
		{
			name:    "missing directory",
			input:   `{"file": "m.c", "arguments": ["cc"]}`,
			wantErr: true,
		},
		{
			name:    "missing file",
			input:   `{"directory": "/p", "arguments": ["cc"]}`,
			wantErr: true,
		},
		{
			name:    "unbalanced quotes",
			input:   `{"directory": "/p", "file": "m.c", "command": "cc 'oops"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry Entry
			err := json.Unmarshal([]byte(tt.input), &entry)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(entry, tt.want) {
				t.Errorf("entry = %+v, want %+v", entry, tt.want)
			}
		})
	}
}

// An entry written in array form, read back, re-written in string form
// and read again keeps (directory, file, arguments, output).
func TestEntry_ArrayCommandEquivalence(t *testing.T) {
	original := Entry{
		Directory: "/home/user",
		File:      "/home/user/main.c",
		Arguments: []string{"/usr/bin/cc", "-DNAME=John Doe", "-I", "include dir", "main.c"},
		Output:    "/home/user/main.o",
	}

	arrayForm, err := marshalEntry(original, true, false)
	if err != nil {
		t.Fatalf("marshalEntry failed: %v", err)
	}
	var intermediate Entry
	if err := json.Unmarshal(arrayForm, &intermediate); err != nil {
		t.Fatalf("unmarshal of array form failed: %v", err)
	}

	commandForm, err := marshalEntry(intermediate, false, false)
	if err != nil {
		t.Fatalf("marshalEntry failed: %v", err)
	}
	var final Entry
	if err := json.Unmarshal(commandForm, &final); err != nil {
		t.Fatalf("unmarshal of command form failed: %v", err)
	}

	if !reflect.DeepEqual(final, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", final, original)
	}
}

func TestEntryReader_Streams(t *testing.T) {
	input := `[
	  {"directory": "/p", "file": "/p/a.c", "arguments": ["cc", "-c", "a.c"]},
	  {"directory": "/p", "file": "/p/b.c", "command": "cc -c b.c"}
	]`

	reader := NewEntryReader(strings.NewReader(input))
	var entries []Entry
	for {
		entry, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("read %d entries, want 2", len(entries))
	}
	if entries[0].File != "/p/a.c" || entries[1].File != "/p/b.c" {
		t.Errorf("entries out of order: %+v", entries)
	}
	if !reflect.DeepEqual(entries[1].Arguments, []string{"cc", "-c", "b.c"}) {
		t.Errorf("command form not split: %v", entries[1].Arguments)
	}
}

func TestEntryReader_EmptyArray(t *testing.T) {
	reader := NewEntryReader(strings.NewReader("[]"))
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got: %v", err)
	}
}

func TestEntryReader_NotAnArray(t *testing.T) {
	reader := NewEntryReader(strings.NewReader(`{"directory": "/p"}`))
	if _, err := reader.Next(); err == nil || err == io.EOF {
		t.Errorf("expected parse error, got: %v", err)
	}
}
