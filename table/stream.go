package table

import "github.com/apache/arrow-go/v18/arrow"

// RecordStream is a bounded stream of record batches sharing one schema.
// Batches are handed out in the deterministic order the scan produced them.
type RecordStream struct {
	schema  *arrow.Schema
	batches []arrow.Record
	pos     int
}

// NewRecordStream wraps already-materialized batches. The stream takes
// ownership of the records.
func NewRecordStream(schema *arrow.Schema, batches []arrow.Record) *RecordStream {
	return &RecordStream{schema: schema, batches: batches}
}

// Schema returns the shared batch schema.
func (s *RecordStream) Schema() *arrow.Schema {
	return s.schema
}

// Next returns the next batch, or false when the stream is exhausted. The
// caller is responsible for releasing each returned record.
func (s *RecordStream) Next() (arrow.Record, bool) {
	if s.pos >= len(s.batches) {
		return nil, false
	}
	rec := s.batches[s.pos]
	s.pos++
	return rec, true
}

// NumRows returns the total row count across all batches.
func (s *RecordStream) NumRows() int64 {
	var n int64
	for _, rec := range s.batches {
		n += rec.NumRows()
	}
	return n
}

// Release frees every batch not yet handed out.
func (s *RecordStream) Release() {
	for ; s.pos < len(s.batches); s.pos++ {
		s.batches[s.pos].Release()
	}
}
