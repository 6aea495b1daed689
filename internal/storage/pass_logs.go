package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/restday/internal/engine"
)

// PassLog records the outcome of one validation pass.
type PassLog struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	EntriesReceived int       `json:"entries_received"`
	Planned         int       `json:"planned"`
	Skipped         int       `json:"skipped"`
	Approved        int       `json:"approved"`
	Rejected        int       `json:"rejected"`
	DurationMs      *int      `json:"duration_ms"`
	ErrorMessage    *string   `json:"error_message"`
}

// Pass log statuses.
const (
	PassSuccess = "success"
	PassNoData  = "no_data"
)

// NewPassLog builds a log row. A non-nil loadErr marks the pass as having
// had no data to validate.
func NewPassLog(source string, received, planned, skipped, approved int, elapsed time.Duration, loadErr error) PassLog {
	ms := int(elapsed.Milliseconds())
	l := PassLog{
		ID:              uuid.NewString(),
		Source:          source,
		Status:          PassSuccess,
		EntriesReceived: received,
		Planned:         planned,
		Skipped:         skipped,
		Approved:        approved,
		Rejected:        planned - approved,
		DurationMs:      &ms,
	}
	if loadErr != nil {
		msg := loadErr.Error()
		l.Status = PassNoData
		l.ErrorMessage = &msg
	}
	return l
}

// InsertPassLog stores a pass log row.
func (db *DB) InsertPassLog(ctx context.Context, log PassLog) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO pass_logs (id, source, status, entries_received, planned, skipped,
		 approved, rejected, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		log.ID, log.Source, log.Status, log.EntriesReceived, log.Planned, log.Skipped,
		log.Approved, log.Rejected, log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("inserting pass log: %w", err)
	}
	return nil
}

// QueryPassLogs returns the most recent pass logs.
func (db *DB) QueryPassLogs(ctx context.Context, limit int) ([]PassLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, created_at, source, status, entries_received, planned, skipped,
		 approved, rejected, duration_ms, error_message
		 FROM pass_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying pass logs: %w", err)
	}
	defer rows.Close()

	result := []PassLog{}
	for rows.Next() {
		var l PassLog
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status, &l.EntriesReceived,
			&l.Planned, &l.Skipped, &l.Approved, &l.Rejected, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning pass log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// RecordPass stores the summary of a report pass.
func (db *DB) RecordPass(ctx context.Context, source string, p engine.Pass, elapsed time.Duration) error {
	return db.InsertPassLog(ctx, NewPassLog(source, p.Load.Received, len(p.Rows), len(p.Load.Skipped), p.Approved(), elapsed, p.LoadErr))
}

var _ engine.PassRecorder = (*DB)(nil)
