package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/chisel-build/chisel/iox"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/semantic"
)

// Config selects the writer behavior.
type Config struct {
	// Append merges the entries of an existing database at the target
	// path into the output before deduplication.
	Append bool
	// CommandAsArray selects the arguments (array) form over the
	// command (shell-quoted string) form.
	CommandAsArray bool
	// DropOutputField omits the output field from serialized entries.
	DropOutputField bool
	// DuplicateFields is the duplicate filter key.
	DuplicateFields []Field
}

// Writer is the composed output pipeline: converter, appender, atomic
// commit, duplicate filter and serializer. Writes flow outward to
// inward; the chain is strictly sequential.
type Writer struct {
	path   string
	config Config
	stats  *Statistics
	logger *log.Logger
}

// NewWriter validates the configuration and builds the writer. The
// duplicate filter configuration is checked here so contradictions fail
// at startup, not mid-commit.
func NewWriter(path string, config Config, stats *Statistics, logger *log.Logger) (*Writer, error) {
	if _, err := NewDuplicateFilter(config.DuplicateFields); err != nil {
		return nil, err
	}
	return &Writer{path: path, config: config, stats: stats, logger: logger}, nil
}

// entrySink is one stage of the writer chain.
type entrySink interface {
	Write(entry Entry) error
	Close() error
}

// Run consumes the compiler calls and commits the database. On any
// failure the temporary file is removed and the target path is left
// untouched.
func (w *Writer) Run(calls iter.Seq[semantic.CompilerCall]) (err error) {
	filter, err := NewDuplicateFilter(w.config.DuplicateFields)
	if err != nil {
		return err
	}

	tmpPath := w.path + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("cannot create temporary output %s: %w", tmpPath, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		iox.DiscardClose(tmp)
		_ = os.Remove(tmpPath)
	}()

	var sink entrySink = newArrayWriter(tmp, w.config.CommandAsArray, w.config.DropOutputField, w.stats)
	sink = &uniqueWriter{inner: sink, filter: filter, stats: w.stats}

	if w.config.Append {
		if err := w.appendExisting(sink); err != nil {
			return err
		}
	}

	for call := range calls {
		w.stats.SemanticCommands.Add(1)
		for _, entry := range w.convert(call) {
			w.stats.EntriesProduced.Add(1)
			if err := sink.Write(entry); err != nil {
				return err
			}
		}
	}

	if err := sink.Close(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("cannot flush output %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close output %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("cannot commit output %s: %w", w.path, err)
	}
	committed = true
	return nil
}

// appendExisting interleaves the entries of an existing database into
// the sink ahead of the new entries. A missing file is fine; a file
// that cannot be parsed aborts the write.
func (w *Writer) appendExisting(sink entrySink) error {
	existing, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cannot open existing database %s: %w", w.path, err)
	}
	defer iox.DiscardClose(existing)

	reader := NewEntryReader(bufio.NewReader(existing))
	for {
		entry, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cannot read existing database %s: %w", w.path, err)
		}
		w.stats.EntriesFromExisting.Add(1)
		if err := sink.Write(entry); err != nil {
			return err
		}
	}
}

// convert turns one compiler call into entries, one per compile pass.
// Preprocess passes are discarded; invalid passes are logged and
// dropped.
func (w *Writer) convert(call semantic.CompilerCall) []Entry {
	var entries []Entry
	for _, pass := range call.Passes {
		if pass.Kind != semantic.Compile {
			continue
		}
		entry, err := entryFromPass(call.Compiler, call.WorkingDir, pass)
		if err != nil {
			w.logger.Info("entry conversion failed", map[string]any{
				"compiler": call.Compiler,
				"error":    err.Error(),
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// entryFromPass assembles a single-source compile entry. The argument
// vector reproduces the compile of the source: compiler, flags, output
// flag pair when present, then the source. The file and output fields
// are absolute or relative to the directory.
func entryFromPass(compiler, workingDir string, pass semantic.CompilerPass) (Entry, error) {
	if compiler == "" {
		return Entry{}, errors.New("compiler path is empty")
	}
	if pass.Source == "" {
		return Entry{}, errors.New("source path is empty")
	}
	if workingDir == "" || !filepath.IsAbs(workingDir) {
		return Entry{}, fmt.Errorf("working directory %q is not absolute", workingDir)
	}

	arguments := make([]string, 0, len(pass.Flags)+4)
	arguments = append(arguments, compiler)
	arguments = append(arguments, pass.Flags...)
	if pass.Output != "" {
		arguments = append(arguments, "-o", pass.Output)
	}
	arguments = append(arguments, pass.Source)

	entry := Entry{
		Directory: workingDir,
		File:      resolveAgainst(pass.Source, workingDir),
		Arguments: arguments,
	}
	if pass.Output != "" {
		entry.Output = resolveAgainst(pass.Output, workingDir)
	}
	return entry, nil
}

// resolveAgainst absolutizes path against root when relative.
func resolveAgainst(path, root string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// uniqueWriter is the duplicate filter stage: the first occurrence of
// each key passes, subsequent occurrences are counted and dropped.
type uniqueWriter struct {
	inner  entrySink
	filter *DuplicateFilter
	stats  *Statistics
}

func (u *uniqueWriter) Write(entry Entry) error {
	if !u.filter.Unique(&entry) {
		u.stats.DuplicatesDropped.Add(1)
		return nil
	}
	return u.inner.Write(entry)
}

func (u *uniqueWriter) Close() error {
	return u.inner.Close()
}

// arrayWriter is the serializer stage: a pretty-printed JSON array.
type arrayWriter struct {
	writer         *bufio.Writer
	commandAsArray bool
	dropOutput     bool
	count          int
	stats          *Statistics
}

func newArrayWriter(w io.Writer, commandAsArray, dropOutput bool, stats *Statistics) *arrayWriter {
	return &arrayWriter{
		writer:         bufio.NewWriter(w),
		commandAsArray: commandAsArray,
		dropOutput:     dropOutput,
		stats:          stats,
	}
}

func (a *arrayWriter) Write(entry Entry) error {
	separator := "[\n  "
	if a.count > 0 {
		separator = ",\n  "
	}
	encoded, err := marshalEntry(entry, a.commandAsArray, a.dropOutput)
	if err != nil {
		return fmt.Errorf("cannot serialize entry for %s: %w", entry.File, err)
	}
	if _, err := a.writer.WriteString(separator); err != nil {
		return err
	}
	if _, err := a.writer.Write(encoded); err != nil {
		return err
	}
	a.count++
	a.stats.EntriesWritten.Add(1)
	return nil
}

func (a *arrayWriter) Close() error {
	terminator := "[]\n"
	if a.count > 0 {
		terminator = "\n]\n"
	}
	if _, err := a.writer.WriteString(terminator); err != nil {
		return err
	}
	return a.writer.Flush()
}
