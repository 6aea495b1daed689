// Package facts is the in-memory fact store: completed workout records and
// injury records taken from one snapshot document. The only way to change its
// contents is Reload, which replaces everything at once.
package facts

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
)

// Store owns the current snapshot. Readers take a View and query it without
// further locking; Reload builds a complete new snapshot before swapping it in.
type Store struct {
	kb   *muscle.KnowledgeBase
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore creates an empty store.
func NewStore(kb *muscle.KnowledgeBase) *Store {
	return &Store{kb: kb, snap: emptySnapshot()}
}

// Skip records a document entry that was not loaded.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// LoadResult describes what a Reload took from the document.
type LoadResult struct {
	Received int                   `json:"received"`
	Workouts int                   `json:"workouts"`
	Injuries int                   `json:"injuries"`
	Planned  []models.PlannedEntry `json:"-"`
	Skipped  []Skip                `json:"skipped,omitempty"`
}

// Reload discards all records and repopulates the store from doc. Completed
// entries become workout records (and injury records when the injury note is
// non-blank); planned entries are returned to the caller, never retained.
// Entries without a date or muscle, with an unparsable date, an unknown entry
// type, or a completed entry naming a group outside the taxonomy are skipped.
func (s *Store) Reload(doc models.Document) LoadResult {
	next := emptySnapshot()
	res := LoadResult{Received: len(doc)}

	skip := func(i int, format string, args ...any) {
		res.Skipped = append(res.Skipped, Skip{Index: i, Reason: fmt.Sprintf(format, args...)})
	}

	for i, e := range doc {
		if e.Date == "" || e.Muscle == "" {
			skip(i, "missing date or muscle")
			continue
		}
		date, err := models.ParseDate(e.Date)
		if err != nil {
			skip(i, "%v", err)
			continue
		}

		switch e.EntryType {
		case models.EntryCompleted:
			g, ok := s.kb.Parse(e.Muscle)
			if !ok {
				skip(i, "unknown muscle group %q", e.Muscle)
				continue
			}
			next.workouts[g] = append(next.workouts[g], models.WorkoutRecord{
				Date:      date,
				Muscle:    g,
				Exercises: e.Exercises,
				Duration:  max(e.Duration, 0),
			})
			res.Workouts++
			if e.HasInjury() {
				next.injuries[g] = append(next.injuries[g], models.InjuryRecord{Date: date, Muscle: g})
				res.Injuries++
			}
		case models.EntryPlanned:
			res.Planned = append(res.Planned, models.Planned(e, date))
		default:
			skip(i, "unknown entry type %q", e.EntryType)
		}
	}

	next.index()
	next.workoutCount, next.injuryCount = res.Workouts, res.Injuries

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return res
}

// View returns the current snapshot. It stays valid and unchanged even if the
// store is reloaded afterwards.
func (s *Store) View() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// MostRecentWorkout queries the current snapshot.
func (s *Store) MostRecentWorkout(g muscle.Group, asOf time.Time) (models.WorkoutRecord, bool) {
	return s.View().MostRecentWorkout(g, asOf)
}

// MostRecentInjury queries the current snapshot.
func (s *Store) MostRecentInjury(g muscle.Group, asOf time.Time) (models.InjuryRecord, bool) {
	return s.View().MostRecentInjury(g, asOf)
}

// Snapshot is an immutable set of records indexed by muscle group. Records of
// one group are ordered by date; equal dates keep document order.
type Snapshot struct {
	workouts     map[muscle.Group][]models.WorkoutRecord
	injuries     map[muscle.Group][]models.InjuryRecord
	workoutCount int
	injuryCount  int
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		workouts: make(map[muscle.Group][]models.WorkoutRecord),
		injuries: make(map[muscle.Group][]models.InjuryRecord),
	}
}

func (sn *Snapshot) index() {
	for _, recs := range sn.workouts {
		slices.SortStableFunc(recs, func(a, b models.WorkoutRecord) int { return a.Date.Compare(b.Date) })
	}
	for _, recs := range sn.injuries {
		slices.SortStableFunc(recs, func(a, b models.InjuryRecord) int { return a.Date.Compare(b.Date) })
	}
}

// MostRecentWorkout returns the latest workout on g dated on or before asOf.
// Among records with the same date the one inserted last wins.
func (sn *Snapshot) MostRecentWorkout(g muscle.Group, asOf time.Time) (models.WorkoutRecord, bool) {
	recs := sn.workouts[g]
	i := latestAtOrBefore(len(recs), asOf, func(i int) time.Time { return recs[i].Date })
	if i < 0 {
		return models.WorkoutRecord{}, false
	}
	return recs[i], true
}

// MostRecentInjury returns the latest injury on g dated on or before asOf.
func (sn *Snapshot) MostRecentInjury(g muscle.Group, asOf time.Time) (models.InjuryRecord, bool) {
	recs := sn.injuries[g]
	i := latestAtOrBefore(len(recs), asOf, func(i int) time.Time { return recs[i].Date })
	if i < 0 {
		return models.InjuryRecord{}, false
	}
	return recs[i], true
}

// Workouts is the number of workout records in the snapshot.
func (sn *Snapshot) Workouts() int { return sn.workoutCount }

// Injuries is the number of injury records in the snapshot.
func (sn *Snapshot) Injuries() int { return sn.injuryCount }

func latestAtOrBefore(n int, asOf time.Time, dateAt func(int) time.Time) int {
	asOf = models.CivilDate(asOf)
	return sort.Search(n, func(i int) bool { return dateAt(i).After(asOf) }) - 1
}
