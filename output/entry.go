// Package output converts recognized compiler calls into JSON
// compilation database entries and writes them: duplicates are filtered,
// an existing database can be merged in, and the file is committed
// atomically.
//
// The database format is the LLVM JSON compilation database: a JSON
// array of objects with mandatory directory and file fields, exactly one
// of arguments (array form) or command (shell-quoted string form), and
// an optional output field.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kballard/go-shellquote"
)

// Entry is one compilation database record. Arguments is the canonical
// in-memory representation; the command string form is produced and
// consumed only at the serialization boundary.
type Entry struct {
	// Directory is the working directory of the compilation. Paths in
	// the other fields are absolute or relative to this directory.
	Directory string
	// File is the main translation unit source processed by this step.
	File string
	// Arguments is the compile command; position 0 is the compiler.
	Arguments []string
	// Output is the name of the file created by this step; empty when
	// not known.
	Output string
}

// entryJSON fixes the serialized field order and the array/string form
// selection.
type entryJSON struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// MarshalJSON serializes the entry in array form.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Directory: e.Directory,
		File:      e.File,
		Arguments: e.Arguments,
		Output:    e.Output,
	})
}

// marshalEntry serializes the entry in the requested form. The string
// form shell-quotes the arguments; the output field is dropped when the
// configuration asks for it.
func marshalEntry(e Entry, commandAsArray, dropOutput bool) ([]byte, error) {
	record := entryJSON{
		Directory: e.Directory,
		File:      e.File,
	}
	if commandAsArray {
		record.Arguments = e.Arguments
	} else {
		record.Command = shellquote.Join(e.Arguments...)
	}
	if !dropOutput {
		record.Output = e.Output
	}
	return json.MarshalIndent(record, "  ", "  ")
}

// UnmarshalJSON accepts either form per entry: array form is taken as
// is, string form is shell-split. Both forms present is malformed, as is
// neither. Directory and file are mandatory.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var record struct {
		Directory *string  `json:"directory"`
		File      *string  `json:"file"`
		Arguments []string `json:"arguments"`
		Command   *string  `json:"command"`
		Output    string   `json:"output"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	if record.Directory == nil {
		return errors.New("entry is missing the directory field")
	}
	if record.File == nil {
		return errors.New("entry is missing the file field")
	}
	if record.Arguments != nil && record.Command != nil {
		return errors.New("entry has both command and arguments fields")
	}

	arguments := record.Arguments
	if arguments == nil {
		if record.Command == nil {
			return errors.New("entry needs either a command or an arguments field")
		}
		split, err := shellquote.Split(*record.Command)
		if err != nil {
			return fmt.Errorf("cannot split command %q: %w", *record.Command, err)
		}
		arguments = split
	}

	e.Directory = *record.Directory
	e.File = *record.File
	e.Arguments = arguments
	e.Output = record.Output
	return nil
}

// EntryReader streams entries from a JSON compilation database array.
type EntryReader struct {
	decoder *json.Decoder
	started bool
}

// NewEntryReader creates a streaming reader over a database file.
func NewEntryReader(r io.Reader) *EntryReader {
	return &EntryReader{decoder: json.NewDecoder(r)}
}

// Next returns the next entry, or io.EOF at the end of the array.
func (r *EntryReader) Next() (Entry, error) {
	if !r.started {
		token, err := r.decoder.Token()
		if err != nil {
			return Entry{}, fmt.Errorf("cannot read compilation database: %w", err)
		}
		if delim, ok := token.(json.Delim); !ok || delim != '[' {
			return Entry{}, fmt.Errorf("compilation database must be a JSON array, got %v", token)
		}
		r.started = true
	}

	if !r.decoder.More() {
		// Consume the closing bracket so trailing garbage is detected.
		if _, err := r.decoder.Token(); err != nil && err != io.EOF {
			return Entry{}, fmt.Errorf("cannot read compilation database: %w", err)
		}
		return Entry{}, io.EOF
	}

	var entry Entry
	if err := r.decoder.Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("cannot read compilation database entry: %w", err)
	}
	return entry, nil
}
