// Package sqlhistory implements run history in an SQLite database.
package sqlhistory

import (
	"context"
	_ "embed"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/voxe/history"
)

// Store is a run history in an SQLite database.
type Store struct {
	db *sqlitex.Pool
}

var _ history.Store = (*Store)(nil)

//go:embed schema.sql
var schemaSQL string

// Init initializes the history schema in a database.
func Init[DB *sqlitex.Pool | *sqlite.Conn](ctx context.Context, db DB) error {
	var conn *sqlite.Conn
	switch db := any(db).(type) {
	case *sqlite.Conn:
		conn = db
	case *sqlitex.Pool:
		var err error
		conn, err = db.Take(ctx)
		defer db.Put(conn)
		if err != nil {
			return fmt.Errorf("couldn't get conn to initialize history: %w", err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
		return fmt.Errorf("couldn't initialize history schema: %w", err)
	}
	return nil
}

// Open returns a history store within the given database, initializing the
// schema if needed. The db must remain open for the lifetime of the store.
func Open(ctx context.Context, db *sqlitex.Pool) (*Store, error) {
	if err := Init(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves a report. Recording the same ID twice replaces the report.
func (s *Store) Record(ctx context.Context, r *history.Report) error {
	b, err := history.Marshal(r)
	if err != nil {
		return fmt.Errorf("couldn't encode report: %w", err)
	}
	conn, err := s.db.Take(ctx)
	defer s.db.Put(conn)
	if err != nil {
		return fmt.Errorf("couldn't get conn to record report: %w", err)
	}
	const insert = `INSERT OR REPLACE INTO runs (id, start, report) VALUES (:id, :start, :report)`
	st, err := conn.Prepare(insert)
	if err != nil {
		return fmt.Errorf("couldn't prepare statement to record report: %w", err)
	}
	st.SetText(":id", r.ID.String())
	st.SetInt64(":start", r.Start.UnixNano())
	st.SetText(":report", string(b))
	if _, err := st.Step(); err != nil {
		return fmt.Errorf("couldn't insert report: %w", err)
	}
	return nil
}

// Recent returns up to n reports, most recent first.
func (s *Store) Recent(ctx context.Context, n int) ([]history.Report, error) {
	if n <= 0 {
		return nil, nil
	}
	conn, err := s.db.Take(ctx)
	defer s.db.Put(conn)
	if err != nil {
		return nil, fmt.Errorf("couldn't get conn to find reports: %w", err)
	}
	const sel = `SELECT report FROM runs ORDER BY start DESC, id DESC LIMIT :n`
	st, err := conn.Prepare(sel)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare statement to find reports: %w", err)
	}
	st.SetInt64(":n", int64(n))
	var r []history.Report
	for {
		ok, err := st.Step()
		if err != nil {
			st.Reset()
			return nil, fmt.Errorf("couldn't find reports: %w", err)
		}
		if !ok {
			break
		}
		var rep history.Report
		if err := history.Unmarshal([]byte(st.ColumnText(0)), &rep); err != nil {
			st.Reset()
			return nil, fmt.Errorf("couldn't decode report: %w", err)
		}
		r = append(r, rep)
	}
	return r, nil
}
