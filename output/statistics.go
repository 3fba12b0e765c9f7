package output

import (
	"fmt"
	"sync/atomic"
)

// Statistics tallies the output pipeline as entries flow through. Each
// writer in the chain updates its field with atomic operations; the
// record is the only object shared between pipeline threads without
// external locking.
type Statistics struct {
	// SemanticCommands counts compiler calls received by the converter.
	SemanticCommands atomic.Int64
	// EntriesProduced counts entries produced by the converter.
	EntriesProduced atomic.Int64
	// EntriesFromExisting counts entries read from an existing database
	// in append mode.
	EntriesFromExisting atomic.Int64
	// DuplicatesDropped counts entries removed by the duplicate filter.
	DuplicatesDropped atomic.Int64
	// SourceFiltered counts calls dropped by the source filters.
	SourceFiltered atomic.Int64
	// EntriesWritten counts entries in the final output file.
	EntriesWritten atomic.Int64
}

// String renders the human readable pipeline summary.
func (s *Statistics) String() string {
	return fmt.Sprintf(
		"Output pipeline:\n"+
			"  semantic events: %d\n"+
			"  current entries: %d\n"+
			"  previous entries: %d\n"+
			"  filtered entries by duplicate: %d\n"+
			"  filtered entries by source: %d\n"+
			"  total entries written: %d",
		s.SemanticCommands.Load(),
		s.EntriesProduced.Load(),
		s.EntriesFromExisting.Load(),
		s.DuplicatesDropped.Load(),
		s.SourceFiltered.Load(),
		s.EntriesWritten.Load(),
	)
}
