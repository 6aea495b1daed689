package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/snapshot"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { j.Close() })
	return j
}

// TestJournalAppendLoad verifies entries round-trip in insertion order with
// stamped bookkeeping fields.
func TestJournalAppendLoad(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)

	doc, err := j.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc == nil || len(doc) != 0 {
		t.Fatalf("fresh journal = %#v, want empty document", doc)
	}

	a, err := j.Append(ctx, models.Entry{Date: "2025-02-27", Muscle: "chest", Exercises: "bench", Duration: 55.5, Injuries: "sore", EntryType: models.EntryCompleted})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	b, err := j.Append(ctx, models.Entry{UserInput: "back on monday", Date: "2025-03-03", Muscle: "back", EntryType: models.EntryPlanned})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if a.ID == "" || a.ID == b.ID || a.Timestamp != "2025-03-01T12:00:00Z" {
		t.Errorf("bad stamps: %+v %+v", a, b)
	}

	doc, err = j.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(models.Document{a, b}, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

// TestJournalAppendInvalid verifies validation runs before insert.
func TestJournalAppendInvalid(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)
	if _, err := j.Append(ctx, models.Entry{Date: "2025-02-27", Muscle: "chest", EntryType: "someday"}); !errors.Is(err, snapshot.ErrInvalidEntry) {
		t.Errorf("err = %v, want ErrInvalidEntry", err)
	}
	if n, _ := j.Count(ctx); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

// TestJournalReplace verifies Replace drops the old contents and keeps
// supplied ids.
func TestJournalReplace(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)
	if _, err := j.Append(ctx, models.Entry{Date: "2025-02-27", Muscle: "legs", EntryType: models.EntryCompleted}); err != nil {
		t.Fatal(err)
	}

	doc := models.Document{
		{ID: "keep-me", Date: "2025-02-20", Muscle: "back", EntryType: models.EntryCompleted},
		{Date: "2025-02-21", Muscle: "calves", EntryType: models.EntryCompleted},
	}
	if err := j.Replace(ctx, doc); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := j.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "keep-me" || got[1].ID == "" || got[1].Muscle != "calves" {
		t.Errorf("after replace = %+v", got)
	}
	if n, _ := j.Count(ctx); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

// TestJournalReplaceRollsBack verifies a failing insert leaves the previous
// contents intact.
func TestJournalReplaceRollsBack(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)
	if _, err := j.Append(ctx, models.Entry{Date: "2025-02-27", Muscle: "legs", EntryType: models.EntryCompleted}); err != nil {
		t.Fatal(err)
	}

	dup := models.Document{
		{ID: "same", Date: "2025-02-20", Muscle: "back", EntryType: models.EntryCompleted},
		{ID: "same", Date: "2025-02-21", Muscle: "back", EntryType: models.EntryCompleted},
	}
	if err := j.Replace(ctx, dup); err == nil {
		t.Fatal("expected unique constraint error")
	}

	got, err := j.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Muscle != "legs" {
		t.Errorf("journal changed after failed replace: %+v", got)
	}
}

// TestJournalReopen verifies data survives closing the database.
func TestJournalReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Append(ctx, models.Entry{Date: "2025-02-27", Muscle: "glutes", EntryType: models.EntryCompleted}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if n, err := j.Count(ctx); err != nil || n != 1 {
		t.Errorf("count = %d, %v; want 1", n, err)
	}
}
