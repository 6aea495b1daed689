// Package engine decides whether a muscle group can be trained on a given
// date. Decisions are a pure function of the knowledge base and one fact
// store snapshot; the rules are checked in a fixed priority order and the
// first match wins:
//
//  1. unknown muscle group
//  2. injury on the group inside its recovery window
//  3. injury inside its own window on a group trained together with it
//  4. last session on the group closer than its rest threshold
//  5. allowed
//
// Rejections come with alternatives: other groups, not trained together
// with the requested one, that are allowed on the same date.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/restday/internal/facts"
	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
)

// Source supplies snapshot documents.
type Source interface {
	Load(ctx context.Context) (models.Document, error)
}

// Options tunes the batch validator.
type Options struct {
	// AdvisoryMaxRestDays overrides the informational max-rest value on
	// report rows. Zero uses the knowledge base maximum.
	AdvisoryMaxRestDays int
	// Workers bounds parallel evaluation. Zero uses GOMAXPROCS.
	Workers int
}

// Engine ties the knowledge base to fact stores. It holds no facts itself,
// so one Engine serves any number of concurrent requests.
type Engine struct {
	kb   *muscle.KnowledgeBase
	opts Options
	log  *slog.Logger
}

// New creates an Engine.
func New(kb *muscle.KnowledgeBase, opts Options, log *slog.Logger) *Engine {
	return &Engine{kb: kb, opts: opts, log: log}
}

// KnowledgeBase returns the knowledge base the engine evaluates against.
func (e *Engine) KnowledgeBase() *muscle.KnowledgeBase { return e.kb }

// NewStore returns an empty fact store bound to the engine's knowledge base.
func (e *Engine) NewStore() *facts.Store { return facts.NewStore(e.kb) }

// AdvisoryMaxRestDays is the informational value stamped on report rows.
// It is never below 1.
func (e *Engine) AdvisoryMaxRestDays() int {
	n := e.opts.AdvisoryMaxRestDays
	if n <= 0 {
		n = e.kb.MaxRestDays()
	}
	return max(n, 1)
}

// Reload reads a document from src and replaces the contents of store with
// it. Failures are returned as *LoadError and leave store untouched.
func (e *Engine) Reload(ctx context.Context, src Source, store *facts.Store) (facts.LoadResult, error) {
	doc, err := src.Load(ctx)
	if err != nil {
		return facts.LoadResult{}, &LoadError{Source: sourceName(src), Err: err}
	}
	res := store.Reload(doc)
	for _, sk := range res.Skipped {
		e.log.Debug("skipped snapshot entry", "index", sk.Index, "reason", sk.Reason)
	}
	return res, nil
}

// ValidateOne evaluates a single (muscle, date) request against view.
// Rejected requests carry alternatives; an unknown muscle never does.
func (e *Engine) ValidateOne(view *facts.Snapshot, token string, date time.Time) Result {
	v := canTrain(e.kb, view, token, date)
	res := Result{
		Muscle:           string(v.group),
		Date:             models.FormatDate(date),
		Approved:         v.reason == Allowed,
		Reason:           v.reason,
		Alternatives:     []muscle.Group{},
		InjuredSynergist: v.synergist,
	}
	if v.reason == InvalidMuscleGroup {
		res.Muscle = token
	}
	if v.reason != Allowed && v.reason != InvalidMuscleGroup {
		res.Alternatives = suggest(e.kb, view, token, date)
	}
	res.Explanation = explain(token, v, res.Alternatives)
	return res
}

// SuggestAlternatives lists the groups that could be trained instead of
// token on date. It is empty, never an error, when nothing qualifies.
func (e *Engine) SuggestAlternatives(view *facts.Snapshot, token string, date time.Time) []muscle.Group {
	return suggest(e.kb, view, token, date)
}

func sourceName(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
