package output

import "testing"

func entry(file string, arguments []string, directory, output string) Entry {
	return Entry{
		Directory: directory,
		File:      file,
		Arguments: arguments,
		Output:    output,
	}
}

func TestNewDuplicateFilter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr bool
	}{
		{name: "file and directory", fields: []Field{FieldFile, FieldDirectory}},
		{name: "single field", fields: []Field{FieldOutput}},
		{name: "command key", fields: []Field{FieldCommand, FieldDirectory}},
		{name: "empty list", fields: nil, wantErr: true},
		{name: "repeated field", fields: []Field{FieldFile, FieldFile}, wantErr: true},
		{name: "arguments and command", fields: []Field{FieldArguments, FieldCommand}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDuplicateFilter(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"file", "directory", "output"})
	if err != nil {
		t.Fatalf("ParseFields failed: %v", err)
	}
	if len(fields) != 3 {
		t.Errorf("got %d fields, want 3", len(fields))
	}

	if _, err := ParseFields([]string{"flags"}); err == nil {
		t.Error("expected error for an unknown field name")
	}
}

func TestDuplicateFilter_FileAndDirectory(t *testing.T) {
	sut, err := NewDuplicateFilter([]Field{FieldFile, FieldDirectory})
	if err != nil {
		t.Fatalf("NewDuplicateFilter failed: %v", err)
	}

	first := entry("/home/user/project/source.c",
		[]string{"cc", "-c", "source.c"},
		"/home/user/project", "/home/user/project/source.o")
	second := entry("/home/user/project/source.c",
		[]string{"cc", "-c", "-Wall", "source.c"},
		"/home/user/project", "/home/user/project/source.o")

	if !sut.Unique(&first) {
		t.Error("first occurrence should be unique")
	}
	if sut.Unique(&second) {
		t.Error("same file and directory with different flags is a duplicate")
	}
}

func TestDuplicateFilter_OutputKey(t *testing.T) {
	sut, err := NewDuplicateFilter([]Field{FieldOutput})
	if err != nil {
		t.Fatalf("NewDuplicateFilter failed: %v", err)
	}

	first := entry("/p/source.c", []string{"cc", "-c", "source.c"}, "/p", "/p/source.o")
	second := entry("/p/source.c", []string{"cc", "-c", "source.c", "-o", "test.o"}, "/p", "/p/test.o")

	if !sut.Unique(&first) {
		t.Error("first entry should be unique")
	}
	if !sut.Unique(&second) {
		t.Error("different outputs should not collide")
	}
}

func TestDuplicateFilter_ArgumentsKey(t *testing.T) {
	sut, err := NewDuplicateFilter([]Field{FieldArguments})
	if err != nil {
		t.Fatalf("NewDuplicateFilter failed: %v", err)
	}

	first := entry("/p/source.c", []string{"cc", "-c", "source.c"}, "/p", "")
	flagged := entry("/p/source.c", []string{"cc", "-c", "-Wall", "source.c"}, "/p", "")
	repeat := entry("/p/other.c", []string{"cc", "-c", "source.c"}, "/q", "")

	if !sut.Unique(&first) {
		t.Error("first entry should be unique")
	}
	if !sut.Unique(&flagged) {
		t.Error("different arguments should not collide")
	}
	if sut.Unique(&repeat) {
		t.Error("same arguments should collide regardless of other fields")
	}
}

// Concatenation across field boundaries must not collide.
func TestDuplicateFilter_FieldBoundaries(t *testing.T) {
	sut, err := NewDuplicateFilter([]Field{FieldDirectory, FieldFile})
	if err != nil {
		t.Fatalf("NewDuplicateFilter failed: %v", err)
	}

	first := entry("b.c", nil, "/p/a", "")
	second := entry("ab.c", nil, "/p/", "")

	if !sut.Unique(&first) {
		t.Error("first entry should be unique")
	}
	if !sut.Unique(&second) {
		t.Error("shifted concatenation must not collide")
	}
}
