package engine

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/restday/internal/facts"
	"github.com/claude/restday/internal/models"
)

// ValidateAll evaluates every planned entry against one snapshot view and
// returns one row per entry in input order. Entries are evaluated in
// parallel; each worker writes only its own slot. The only error is ctx
// cancellation.
func (e *Engine) ValidateAll(ctx context.Context, view *facts.Snapshot, planned []models.PlannedEntry) ([]models.ReportRow, error) {
	rows := make([]models.ReportRow, len(planned))
	if len(planned) == 0 {
		return rows, nil
	}

	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	advisory := e.AdvisoryMaxRestDays()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range planned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := e.ValidateOne(view, p.Muscle, p.Date)
			rows[i] = models.ReportRow{
				Date:      p.RawDate,
				Muscle:    p.Muscle,
				Exercises: p.Exercises,
				Duration:  p.Duration,
				Injuries:  p.Injuries,
				EntryType: models.EntryPlanned,
				Validation: models.Validation{
					Approved:    res.Approved,
					Reason:      string(res.Reason),
					Explanation: res.Explanation,
				},
				AdvisoryMaxRestDays: advisory,
			}
			if !res.Approved && len(res.Alternatives) > 0 {
				rows[i].Alternatives = joinGroups(res.Alternatives)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Pass is the outcome of one Report call.
type Pass struct {
	Rows    []models.ReportRow
	Load    facts.LoadResult
	LoadErr error
}

// Approved counts rows whose verdict is approved.
func (p Pass) Approved() int {
	n := 0
	for _, r := range p.Rows {
		if r.Validation.Approved {
			n++
		}
	}
	return n
}

// Rejected counts rows whose verdict is not approved.
func (p Pass) Rejected() int { return len(p.Rows) - p.Approved() }

// Report loads src into a fresh store and validates every planned entry in
// it. A source that cannot be loaded yields an empty report, with the cause
// kept in Pass.LoadErr for logging; it is not returned as an error.
func (e *Engine) Report(ctx context.Context, src Source) (Pass, error) {
	store := e.NewStore()
	load, err := e.Reload(ctx, src, store)
	if err != nil {
		e.log.Warn("snapshot unavailable, returning empty report", "error", err)
		return Pass{Rows: []models.ReportRow{}, LoadErr: err}, nil
	}
	rows, err := e.ValidateAll(ctx, store.View(), load.Planned)
	if err != nil {
		return Pass{}, err
	}
	return Pass{Rows: rows, Load: load}, nil
}

// PassRecorder persists a summary of each report pass.
type PassRecorder interface {
	RecordPass(ctx context.Context, source string, p Pass, elapsed time.Duration) error
}
