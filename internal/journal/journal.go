// Package journal stores the snapshot in a local SQLite database so a single
// host can run without Postgres. Entries keep their insertion order.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/snapshot"
)

// Journal is a SQLite-backed snapshot.Backend.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ snapshot.Backend = (*Journal)(nil)

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One writer at a time; SQLite would return SQLITE_BUSY otherwise.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		timestamp   TEXT NOT NULL DEFAULT '',
		user_input  TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL,
		muscle      TEXT NOT NULL,
		exercises   TEXT NOT NULL DEFAULT '',
		duration    REAL NOT NULL DEFAULT 0,
		injuries    TEXT NOT NULL DEFAULT '',
		entry_type  TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating entries table: %w", err)
	}

	return &Journal{db: db, path: path, now: time.Now}, nil
}

func (j *Journal) String() string { return j.path }

// Load returns every entry in insertion order.
func (j *Journal) Load(ctx context.Context) (models.Document, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, timestamp, user_input, date, muscle, exercises, duration, injuries, entry_type
		FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	doc := models.Document{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserInput, &e.Date, &e.Muscle,
			&e.Exercises, &e.Duration, &e.Injuries, &e.EntryType); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		doc = append(doc, e)
	}
	return doc, rows.Err()
}

// Append validates, stamps and inserts one entry.
func (j *Journal) Append(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := snapshot.Validate(e); err != nil {
		return models.Entry{}, err
	}
	e = snapshot.Stamp(e, j.now())
	if err := insert(ctx, j.db, e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

// Replace clears the journal and inserts doc in one transaction. Entries
// without an id get one.
func (j *Journal) Replace(ctx context.Context, doc models.Document) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	now := j.now()
	for i, e := range doc {
		if err := insert(ctx, tx, snapshot.Stamp(e, now)); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, e models.Entry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO entries (id, timestamp, user_input, date, muscle, exercises, duration, injuries, entry_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.UserInput, e.Date, e.Muscle, e.Exercises, e.Duration, e.Injuries, string(e.EntryType),
	)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}
