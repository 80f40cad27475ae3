package audit

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Sink records one row per Task.Run, the supplemented feature described
// in SPEC_FULL §11: every successful dispatch is persisted to an embedded
// DuckDB table through the batched write queue, flushed on size or timer,
// exactly like the teacher's own audit_log writes. A timer flush runs on
// its own goroutine; a size-triggered flush runs on the goroutine whose
// Record filled the batch, which for a Bus is a worker. A DynamicDispatch
// miss never reaches a Sink: it
// returns a DispatchError before any Task is built, so it produces zero
// dispatch_log rows.
type Sink struct {
	db *DB
}

// NewSink opens (or creates) the dispatch_log table at path and returns a
// Sink ready to Record. batchSize/flushInterval tune the underlying
// write queue the same way they do for the teacher's logger config.
func NewSink(path string, batchSize int, flushInterval time.Duration) (*Sink, error) {
	db, err := NewDB(path, batchSize, flushInterval)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTable("dispatch_log", DispatchLogSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &Sink{db: db}, nil
}

// Record enqueues one dispatch-outcome row. It does no I/O unless this row
// fills the batch, in which case it writes the batch before returning.
func (s *Sink) Record(rec DispatchRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	query := `INSERT INTO dispatch_log (id, timestamp, event_type, consumer_id, queue, outcome) VALUES (?, ?, ?, ?, ?, ?)`
	s.db.QueueWrite("dispatch_log", query, uuid.NewString(), rec.Timestamp, rec.EventType, rec.ConsumerID, rec.Queue, rec.Outcome)
}

// Query flushes any pending dispatch_log writes and runs query against
// the live connection, for callers (tests, embedders auditing their own
// bus) that want to read back what Record has written so far.
func (s *Sink) Query(query string, params ...any) (*sql.Rows, error) {
	return s.db.Query("dispatch_log", query, params...)
}

// Close flushes and closes the underlying DB.
func (s *Sink) Close() {
	s.db.Close()
}
