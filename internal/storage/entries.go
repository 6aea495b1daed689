package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/snapshot"
)

var _ snapshot.Backend = (*DB)(nil)

const entryColumns = 9

// Load returns all snapshot entries in insertion order.
func (db *DB) Load(ctx context.Context) (models.Document, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, timestamp, user_input, date, muscle, exercises, duration, injuries, entry_type
		 FROM entries
		 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	doc := models.Document{}
	for rows.Next() {
		var e models.Entry
		var entryType string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserInput, &e.Date, &e.Muscle,
			&e.Exercises, &e.Duration, &e.Injuries, &entryType); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.EntryType = models.EntryType(entryType)
		doc = append(doc, e)
	}
	return doc, rows.Err()
}

// Append validates, stamps and inserts one entry.
func (db *DB) Append(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := snapshot.Validate(e); err != nil {
		return models.Entry{}, err
	}
	e = snapshot.Stamp(e, time.Now())

	query, args := buildEntryInsert([]models.Entry{e})
	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return models.Entry{}, fmt.Errorf("inserting entry: %w", err)
	}
	return e, nil
}

// Replace deletes every entry and inserts doc in one transaction.
func (db *DB) Replace(ctx context.Context, doc models.Document) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}

	now := time.Now()
	stamped := make([]models.Entry, len(doc))
	for i, e := range doc {
		stamped[i] = snapshot.Stamp(e, now)
	}
	for _, batch := range batches(stamped, 500) {
		query, args := buildEntryInsert(batch)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting entries: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Count returns the number of stored entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// buildEntryInsert renders a multi-row INSERT. Rows keep slice order, which
// becomes their seq order.
func buildEntryInsert(entries []models.Entry) (string, []any) {
	args := make([]any, 0, len(entries)*entryColumns)
	values := make([]string, 0, len(entries))
	for i, e := range entries {
		base := i * entryColumns
		ph := make([]string, entryColumns)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", base+c+1)
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
		args = append(args, e.ID, e.Timestamp, e.UserInput, e.Date, e.Muscle,
			e.Exercises, e.Duration, e.Injuries, string(e.EntryType))
	}
	query := `INSERT INTO entries (id, timestamp, user_input, date, muscle, exercises, duration, injuries, entry_type) VALUES ` +
		strings.Join(values, ",")
	return query, args
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
