package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// DB is an embedded DuckDB connection plus the batched write queues built
// on top of it, adapted from the teacher's code/db/db.go. Every table
// this module writes to (audit_log, dispatch_log) is insert-only, so
// unlike the teacher's DB — which dispatches between a node table and a
// log table per table name — this one always backs a table with the
// single insertTable shape.
type DB struct {
	conn   *sql.DB
	ctx    context.Context
	cancel context.CancelFunc
	wq     *writeQueue
}

// NewDB opens a DuckDB database at path (":memory:" for an ephemeral,
// in-process instance, the common case for a bus's own audit trail).
func NewDB(path string, batchSize int, flushInterval time.Duration) (*DB, error) {
	// The driver parses its DSN as a URL and rejects ":memory:"; an empty
	// DSN is its spelling of an in-memory database.
	if path == ":memory:" {
		path = ""
	}
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("eventbus/audit: opening duckdb: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	db := &DB{conn: conn, ctx: ctx, cancel: cancel}
	db.wq = newWriteQueue(batchSize, flushInterval, db.flushBatch)
	return db, nil
}

// CreateTable creates a table if it doesn't already exist.
func (db *DB) CreateTable(name, schema string) error {
	_, err := db.conn.ExecContext(db.ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, schema))
	return err
}

// QueueWrite enqueues query/params as an insert against table, batching
// it with other pending writes for that table rather than executing it
// on its own. The write that fills a batch to batchSize flushes the whole
// batch on the calling goroutine before QueueWrite returns; every other
// write returns without touching the database.
func (db *DB) QueueWrite(table, query string, params ...any) {
	db.wq.add(table, WriteOp{Query: query, Params: params})
}

// GetWriteQueue hands back a handle scoped to table, satisfying
// WriteQueueInterface, for a caller (the logging package) that wants to
// enqueue writes without re-specifying the table name each time.
func (db *DB) GetWriteQueue(table string) WriteQueueInterface {
	return tableHandle{wq: db.wq, table: table}
}

// Query flushes any pending writes for table (so a read sees them) and
// then runs query against the live connection.
func (db *DB) Query(table, query string, params ...any) (*sql.Rows, error) {
	db.wq.flush(table)
	return db.conn.QueryContext(db.ctx, query, params...)
}

// Close flushes every pending write queue, stops their timers, and closes
// the underlying connection.
func (db *DB) Close() {
	db.wq.flushAll()
	db.wq.stop()
	db.cancel()
	db.conn.Close()
}

func (db *DB) flushBatch(table string, ops []WriteOp) {
	tx, err := db.conn.Begin()
	if err != nil {
		fmt.Printf("eventbus/audit: batch begin failed for table %s: %v\n", table, err)
		return
	}
	for _, op := range ops {
		if _, err := tx.Exec(op.Query, op.Params...); err != nil {
			fmt.Printf("eventbus/audit: batch exec failed for table %s: %v\n", table, err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		fmt.Printf("eventbus/audit: batch commit failed for table %s: %v\n", table, err)
	}
}
