package facts

import (
	"sync"
	"testing"
	"time"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	kb, err := muscle.Load()
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(kb)
}

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func completed(date, m, exercises, injuries string) models.Entry {
	return models.Entry{Date: date, Muscle: m, Exercises: exercises, Duration: 45, Injuries: injuries, EntryType: models.EntryCompleted}
}

// TestReloadSplitsEntries verifies completed entries become records, injuries
// are asserted only for non-blank notes, and planned entries are handed back.
func TestReloadSplitsEntries(t *testing.T) {
	s := newStore(t)
	res := s.Reload(models.Document{
		completed("2025-01-10", "Chest", "bench press", ""),
		completed("2025-01-11", "biceps", "curls", "strained left biceps"),
		{Date: "2025-01-15", Muscle: "legs", Exercises: "squats", EntryType: models.EntryPlanned},
	})

	if res.Received != 3 || res.Workouts != 2 || res.Injuries != 1 {
		t.Errorf("result = %+v, want received=3 workouts=2 injuries=1", res)
	}
	if len(res.Planned) != 1 || res.Planned[0].Muscle != "legs" || !res.Planned[0].Date.Equal(day("2025-01-15")) {
		t.Errorf("planned = %+v", res.Planned)
	}
	if _, ok := s.MostRecentWorkout(muscle.Chest, day("2025-01-15")); !ok {
		t.Error("chest workout missing (muscle token should be case-normalized)")
	}
	if _, ok := s.MostRecentInjury(muscle.Biceps, day("2025-01-15")); !ok {
		t.Error("biceps injury missing")
	}
	if _, ok := s.MostRecentInjury(muscle.Chest, day("2025-01-15")); ok {
		t.Error("chest has no injury note but an injury was recorded")
	}
}

// TestReloadSkipsMalformed verifies malformed entries are skipped and counted
// without affecting the rest of the document.
func TestReloadSkipsMalformed(t *testing.T) {
	s := newStore(t)
	res := s.Reload(models.Document{
		{Muscle: "chest", EntryType: models.EntryCompleted},
		{Date: "2025-01-10", EntryType: models.EntryCompleted},
		completed("not a date", "chest", "", ""),
		completed("2025-01-10", "neck", "", ""),
		{Date: "2025-01-10", Muscle: "chest", EntryType: "maybe"},
		completed("2025-01-10", "back", "rows", ""),
	})
	if len(res.Skipped) != 5 {
		t.Errorf("skipped = %d, want 5 (%+v)", len(res.Skipped), res.Skipped)
	}
	if res.Workouts != 1 {
		t.Errorf("workouts = %d, want 1", res.Workouts)
	}
	for i, sk := range res.Skipped {
		if sk.Index != i {
			t.Errorf("skip[%d].Index = %d", i, sk.Index)
		}
	}
}

// TestNegativeDurationClamped verifies the duration >= 0 record invariant.
func TestNegativeDurationClamped(t *testing.T) {
	s := newStore(t)
	e := completed("2025-01-10", "chest", "", "")
	e.Duration = -30
	s.Reload(models.Document{e})
	rec, ok := s.MostRecentWorkout(muscle.Chest, day("2025-01-10"))
	if !ok || rec.Duration != 0 {
		t.Errorf("record = %+v, %v; want duration 0", rec, ok)
	}
}

// TestMostRecentAsOf verifies records after asOf are invisible and the latest
// earlier one is returned regardless of document order.
func TestMostRecentAsOf(t *testing.T) {
	s := newStore(t)
	s.Reload(models.Document{
		completed("2025-01-12", "chest", "late", ""),
		completed("2025-01-05", "chest", "early", ""),
		completed("2025-01-20", "chest", "future", ""),
	})

	tests := []struct {
		asOf string
		want string
		ok   bool
	}{
		{"2025-01-04", "", false},
		{"2025-01-05", "early", true},
		{"2025-01-11", "early", true},
		{"2025-01-12", "late", true},
		{"2025-01-19", "late", true},
		{"2025-02-01", "future", true},
	}
	for _, tt := range tests {
		rec, ok := s.MostRecentWorkout(muscle.Chest, day(tt.asOf))
		if ok != tt.ok || rec.Exercises != tt.want {
			t.Errorf("MostRecentWorkout(asOf %s) = %q, %v; want %q, %v", tt.asOf, rec.Exercises, ok, tt.want, tt.ok)
		}
	}
}

// TestMostRecentTieBreak verifies same-day records resolve to the one inserted
// last.
func TestMostRecentTieBreak(t *testing.T) {
	s := newStore(t)
	s.Reload(models.Document{
		completed("2025-01-10", "legs", "first", ""),
		completed("2025-01-10", "legs", "second", ""),
		completed("2025-01-09", "legs", "older", ""),
	})
	rec, _ := s.MostRecentWorkout(muscle.Legs, day("2025-01-10"))
	if rec.Exercises != "second" {
		t.Errorf("tie-break picked %q, want second", rec.Exercises)
	}
}

// TestReloadReplacesWholesale verifies nothing from a previous snapshot
// survives a reload, and that a view taken before the reload is unchanged.
func TestReloadReplacesWholesale(t *testing.T) {
	s := newStore(t)
	s.Reload(models.Document{completed("2025-01-10", "chest", "", "torn")})
	before := s.View()

	s.Reload(models.Document{completed("2025-01-10", "back", "", "")})

	if _, ok := s.MostRecentInjury(muscle.Chest, day("2025-01-11")); ok {
		t.Error("chest injury survived reload")
	}
	if _, ok := s.MostRecentWorkout(muscle.Back, day("2025-01-11")); !ok {
		t.Error("back workout missing after reload")
	}
	if _, ok := before.MostRecentInjury(muscle.Chest, day("2025-01-11")); !ok {
		t.Error("old view changed after reload")
	}
	if before.Injuries() != 1 || s.View().Injuries() != 0 {
		t.Errorf("injury counts = %d/%d, want 1/0", before.Injuries(), s.View().Injuries())
	}
}

// TestConcurrentReadsDuringReload exercises readers racing a writer; run with
// -race to check the swap is clean.
func TestConcurrentReadsDuringReload(t *testing.T) {
	s := newStore(t)
	docA := models.Document{completed("2025-01-10", "chest", "a", "")}
	docB := models.Document{completed("2025-01-10", "chest", "b", ""), completed("2025-01-10", "back", "b", "")}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 200 {
				v := s.View()
				chest, _ := v.MostRecentWorkout(muscle.Chest, day("2025-01-10"))
				_, hasBack := v.MostRecentWorkout(muscle.Back, day("2025-01-10"))
				if chest.Exercises == "a" && hasBack {
					t.Errorf("reader %d saw a mixed snapshot", i)
					return
				}
			}
		}(i)
	}
	for i := range 200 {
		if i%2 == 0 {
			s.Reload(docA)
		} else {
			s.Reload(docB)
		}
	}
	wg.Wait()
}
