package output

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Field names an entry field the duplicate filter can key on.
type Field string

// Valid duplicate filter fields. Arguments and Command hash the same
// content, so selecting both is a configuration error rather than a
// stronger key.
const (
	FieldDirectory Field = "directory"
	FieldFile      Field = "file"
	FieldArguments Field = "arguments"
	FieldCommand   Field = "command"
	FieldOutput    Field = "output"
)

// ParseFields converts config strings into fields, rejecting unknown
// names.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		switch Field(name) {
		case FieldDirectory, FieldFile, FieldArguments, FieldCommand, FieldOutput:
			fields = append(fields, Field(name))
		default:
			return nil, fmt.Errorf("unknown duplicate filter field: %q", name)
		}
	}
	return fields, nil
}

// DuplicateFilter is a keyed hash filter: the first occurrence of each
// key passes, subsequent occurrences are dropped.
type DuplicateFilter struct {
	fields []Field
	seen   map[uint64]struct{}
}

// NewDuplicateFilter validates the key configuration and builds the
// filter. The field list must be non-empty, free of repeats, and must
// not select both arguments and command.
func NewDuplicateFilter(fields []Field) (*DuplicateFilter, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("duplicate filter field list is empty")
	}
	seen := make(map[Field]struct{}, len(fields))
	for _, field := range fields {
		if _, duplicate := seen[field]; duplicate {
			return nil, fmt.Errorf("duplicate filter field repeated: %q", field)
		}
		seen[field] = struct{}{}
	}
	if _, args := seen[FieldArguments]; args {
		if _, cmd := seen[FieldCommand]; cmd {
			return nil, fmt.Errorf("duplicate filter cannot key on both arguments and command")
		}
	}
	return &DuplicateFilter{
		fields: fields,
		seen:   make(map[uint64]struct{}),
	}, nil
}

// Unique reports whether the entry's key was not seen before, and
// records it.
func (f *DuplicateFilter) Unique(entry *Entry) bool {
	key := f.hash(entry)
	if _, duplicate := f.seen[key]; duplicate {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// hash folds the selected fields into one 64-bit key. Field values are
// separated by NUL bytes so concatenations cannot collide.
func (f *DuplicateFilter) hash(entry *Entry) uint64 {
	digest := xxhash.New()
	for _, field := range f.fields {
		_, _ = digest.WriteString(string(field))
		_, _ = digest.Write([]byte{0})
		switch field {
		case FieldDirectory:
			_, _ = digest.WriteString(entry.Directory)
		case FieldFile:
			_, _ = digest.WriteString(entry.File)
		case FieldArguments, FieldCommand:
			_, _ = digest.WriteString(strings.Join(entry.Arguments, "\x00"))
		case FieldOutput:
			_, _ = digest.WriteString(entry.Output)
		}
		_, _ = digest.Write([]byte{0})
	}
	return digest.Sum64()
}
