// Public domain.

// Package regionstore keeps a catalog of credible regions in SQLite.
//
// Regions are keyed by event, pipeline, and probability level.  The MOC is
// stored in its binary serialization along with its area so catalogs can be
// listed and sorted without decoding.
package regionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/soniakeys/gwmoc/moc"
)

// ErrNotFound is returned by Get and Delete when no region has the key.
var ErrNotFound = errors.New("regionstore: region not found")

const schema = `
CREATE TABLE IF NOT EXISTS regions (
    event      TEXT NOT NULL,
    pipeline   TEXT NOT NULL,
    level      REAL NOT NULL,
    max_order  INTEGER NOT NULL,
    area_sqdeg REAL NOT NULL,
    moc        BLOB NOT NULL,
    PRIMARY KEY (event, pipeline, level)
);
`

// Record is one stored credible region.
type Record struct {
	Event    string
	Pipeline string
	Level    float64
	MOC      *moc.MOC
}

// Store is the catalog interface used by gwmoc.
type Store interface {
	Put(ctx context.Context, recs ...Record) error
	Get(ctx context.Context, event, pipeline string, level float64) (*moc.MOC, error)
	List(ctx context.Context, event string) ([]Entry, error)
	Delete(ctx context.Context, event, pipeline string, level float64) error
}

// Entry summarizes a stored region without its MOC.
type Entry struct {
	Event     string
	Pipeline  string
	Level     float64
	MaxOrder  int
	SqDegrees float64
}

// Open opens a SQLite database.  dsn is a file name or ":memory:".
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// EnsureSchema creates the regions table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// SQLiteStore is a Store in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a store using db, creating the schema as needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("regionstore: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("regionstore: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put stores records in one transaction, replacing any with the same key.
func (s *SQLiteStore) Put(ctx context.Context, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("regionstore: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO
regions(event, pipeline, level, max_order, area_sqdeg, moc)
VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("regionstore: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if r.MOC == nil {
			return fmt.Errorf("regionstore: %s/%s level %g has no MOC",
				r.Event, r.Pipeline, r.Level)
		}
		b, err := r.MOC.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.Event, r.Pipeline, r.Level,
			r.MOC.MaxOrder(), r.MOC.SquareDegrees(), b); err != nil {
			return fmt.Errorf("regionstore: put %s/%s: %w", r.Event, r.Pipeline, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("regionstore: %w", err)
	}
	return nil
}

// Get returns the region stored under the key.
func (s *SQLiteStore) Get(ctx context.Context, event, pipeline string, level float64) (*moc.MOC, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT moc FROM regions WHERE event = ? AND pipeline = ? AND level = ?`,
		event, pipeline, level).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("regionstore: get %s/%s: %w", event, pipeline, err)
	}
	return moc.Decode(b)
}

// List returns entries for event, or for all events if event is empty,
// ordered by event, pipeline, and level.
func (s *SQLiteStore) List(ctx context.Context, event string) ([]Entry, error) {
	q := `SELECT event, pipeline, level, max_order, area_sqdeg FROM regions`
	var args []any
	if event != "" {
		q += ` WHERE event = ?`
		args = append(args, event)
	}
	q += ` ORDER BY event, pipeline, level`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("regionstore: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Event, &e.Pipeline, &e.Level, &e.MaxOrder, &e.SqDegrees); err != nil {
			return nil, fmt.Errorf("regionstore: list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("regionstore: list: %w", err)
	}
	return out, nil
}

// Delete removes the region stored under the key.
func (s *SQLiteStore) Delete(ctx context.Context, event, pipeline string, level float64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM regions WHERE event = ? AND pipeline = ? AND level = ?`,
		event, pipeline, level)
	if err != nil {
		return fmt.Errorf("regionstore: delete %s/%s: %w", event, pipeline, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("regionstore: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
