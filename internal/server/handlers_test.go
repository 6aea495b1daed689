package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/restday/internal/engine"
	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
	"github.com/claude/restday/internal/snapshot"
	"github.com/claude/restday/internal/storage"
)

const testKey = "test-key"

var testNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

const seedDoc = `[
  {"date": "2025-06-10", "muscle": "biceps", "exercises": "curls", "duration": 30, "injuries": "strained", "entry_type": "completed"},
  {"date": "2025-06-14", "muscle": "legs", "exercises": "squats", "duration": 60, "injuries": "", "entry_type": "completed"},
  {"date": "2025-06-15", "muscle": "back", "exercises": "rows", "duration": 45, "injuries": "", "entry_type": "planned"},
  {"date": "2025-06-16", "muscle": "chest", "exercises": "bench", "duration": 45, "injuries": "", "entry_type": "planned"}
]`

// newTestServer builds a Server over a JSON document in a temp dir. An empty
// seed leaves the file absent.
func newTestServer(t *testing.T, seed string) (*Server, string) {
	t.Helper()
	kb, err := muscle.Load()
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "workouts.json")
	if seed != "" {
		if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
			t.Fatal(err)
		}
	}
	s := New(engine.New(kb, engine.Options{Workers: 2}, log), snapshot.NewFileSource(path, log), testKey, log)
	s.now = func() time.Time { return testNow }
	return s, path
}

func do(t *testing.T, s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

// TestAppendEntry verifies a posted entry is stamped, stored and gets its
// muscle group filled in from the exercise name.
func TestAppendEntry(t *testing.T) {
	s, path := newTestServer(t, "")
	auth := map[string]string{"X-API-Key": testKey}

	rec := do(t, s, http.MethodPost, "/api/v1/entries",
		`{"date": "2025-06-15", "exercises": "Bench Press", "duration": 50, "entry_type": "completed"}`, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[models.Entry](t, rec)
	if got.Muscle != "chest" || got.ID == "" || got.Timestamp == "" {
		t.Errorf("stored entry = %+v", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"muscle": "chest"`) && !strings.Contains(string(data), `"muscle":"chest"`) {
		t.Errorf("document not written: %s", data)
	}
}

// TestAppendEntryRejects covers auth and input failures on the ingest route.
func TestAppendEntryRejects(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		body   string
		status int
	}{
		{"no key", "", `{"date": "2025-06-15", "muscle": "chest", "entry_type": "completed"}`, http.StatusUnauthorized},
		{"wrong key", "other", `{"date": "2025-06-15", "muscle": "chest", "entry_type": "completed"}`, http.StatusForbidden},
		{"bad json", testKey, `{"date":`, http.StatusBadRequest},
		{"no muscle", testKey, `{"date": "2025-06-15", "exercises": "juggling", "entry_type": "completed"}`, http.StatusBadRequest},
		{"bad date", testKey, `{"date": "soon", "muscle": "chest", "entry_type": "completed"}`, http.StatusBadRequest},
		{"bad type", testKey, `{"date": "2025-06-15", "muscle": "chest", "entry_type": "maybe"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, "")
			header := map[string]string{}
			if tt.key != "" {
				header["X-API-Key"] = tt.key
			}
			rec := do(t, s, http.MethodPost, "/api/v1/entries", tt.body, header)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

// TestListEntries verifies the stored document is returned as is and a
// missing document answers 503.
func TestListEntries(t *testing.T) {
	s, _ := newTestServer(t, seedDoc)
	rec := do(t, s, http.MethodGet, "/api/v1/entries", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if doc := decode[models.Document](t, rec); len(doc) != 4 {
		t.Errorf("got %d entries, want 4", len(doc))
	}

	s, _ = newTestServer(t, "")
	if rec := do(t, s, http.MethodGet, "/api/v1/entries", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("missing document status = %d, want 503", rec.Code)
	}
}

// TestValidateOne covers query handling and verdicts of the single check.
func TestValidateOne(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		reason engine.Reason
	}{
		{"missing muscle", "", http.StatusBadRequest, ""},
		{"bad date", "muscle=chest&date=tomorrow", http.StatusBadRequest, ""},
		{"today defaults", "muscle=legs", http.StatusOK, engine.InsufficientRest},
		{"explicit date", "muscle=legs&date=2025-06-16", http.StatusOK, engine.Allowed},
		{"injured", "muscle=biceps", http.StatusOK, engine.InjuryPresent},
		{"synergist injured", "muscle=back", http.StatusOK, engine.TrainedTogetherInjured},
		{"unknown group", "muscle=neck", http.StatusOK, engine.InvalidMuscleGroup},
	}
	s, _ := newTestServer(t, seedDoc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/validate?"+tt.query, "", nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := decode[engine.Result](t, rec); got.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", got.Reason, tt.reason)
			}
		})
	}
}

// TestValidateOneNoData verifies a single check without history answers 503
// instead of approving.
func TestValidateOneNoData(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, http.MethodGet, "/api/v1/validate?muscle=chest", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["error"] != "no workout data available" {
		t.Errorf("error = %q", got["error"])
	}
}

// TestAlternatives verifies suggestions exclude the requested group and its
// synergists.
func TestAlternatives(t *testing.T) {
	s, _ := newTestServer(t, seedDoc)
	rec := do(t, s, http.MethodGet, "/api/v1/alternatives?muscle=back&date=2025-06-15", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Muscle       string   `json:"muscle"`
		Date         string   `json:"date"`
		Alternatives []string `json:"alternatives"`
	}](t, rec)
	if got.Date != "2025-06-15" {
		t.Errorf("date = %q", got.Date)
	}
	for _, a := range got.Alternatives {
		if a == "back" || a == "biceps" || a == "legs" {
			t.Errorf("unexpected alternative %q in %v", a, got.Alternatives)
		}
	}
	if len(got.Alternatives) == 0 {
		t.Error("expected at least one alternative")
	}
}

// TestValidatePlanned verifies posted plans are checked in order and a
// missing history yields an empty list.
func TestValidatePlanned(t *testing.T) {
	s, _ := newTestServer(t, seedDoc)
	body := `[
		{"date": "2025-06-15", "muscle": "legs", "exercises": "squats"},
		{"date": "2025-06-15", "muscle": "chest", "exercises": "bench", "entry_type": "planned"},
		{"date": "2025-06-15", "muscle": "wings"}
	]`
	rec := do(t, s, http.MethodPost, "/api/v1/validate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := decode[plannedReport](t, rec)
	if len(got.Rows) != 3 || len(got.Skipped) != 0 {
		t.Fatalf("got %d rows and %d skipped, want 3 and 0", len(got.Rows), len(got.Skipped))
	}
	wantReasons := []engine.Reason{engine.InsufficientRest, engine.Allowed, engine.InvalidMuscleGroup}
	for i, want := range wantReasons {
		if got.Rows[i].Validation.Reason != string(want) {
			t.Errorf("row %d reason = %s, want %s", i, got.Rows[i].Validation.Reason, want)
		}
	}
	if got.Rows[2].Muscle != "wings" {
		t.Errorf("invalid row muscle = %q, want raw token", got.Rows[2].Muscle)
	}

	for _, bad := range []string{`{`, `[{"date": "2025-06-15", "muscle": "legs", "entry_type": "completed"}]`} {
		if rec := do(t, s, http.MethodPost, "/api/v1/validate", bad, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", bad, rec.Code)
		}
	}

	empty, _ := newTestServer(t, "")
	rec = do(t, empty, http.MethodPost, "/api/v1/validate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("no data: status = %d", rec.Code)
	}
	if got := decode[plannedReport](t, rec); got.Rows == nil || len(got.Rows) != 0 {
		t.Errorf("no data: rows = %#v, want empty list", got.Rows)
	}
}

// TestValidatePlannedSkipsMalformed verifies entries without a date or muscle
// are reported as skipped while the remaining entries are still validated.
func TestValidatePlannedSkipsMalformed(t *testing.T) {
	s, _ := newTestServer(t, seedDoc)
	body := `[
		{"date": "2025-06-15", "muscle": "legs"},
		{"muscle": "chest"},
		{"date": "x", "muscle": "legs"},
		{"date": "2025-06-16", "muscle": " "},
		{"date": "2025-06-15", "muscle": "back"}
	]`
	rec := do(t, s, http.MethodPost, "/api/v1/validate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := decode[plannedReport](t, rec)

	var muscles []string
	for _, row := range got.Rows {
		muscles = append(muscles, row.Muscle)
	}
	if diff := cmp.Diff([]string{"legs", "back"}, muscles); diff != "" {
		t.Errorf("validated rows mismatch (-want +got):\n%s", diff)
	}
	if got.Rows[1].Validation.Reason != string(engine.TrainedTogetherInjured) {
		t.Errorf("back reason = %s", got.Rows[1].Validation.Reason)
	}

	var indexes []int
	for _, sk := range got.Skipped {
		indexes = append(indexes, sk.Index)
		if sk.Reason == "" {
			t.Errorf("skip %d has no reason", sk.Index)
		}
	}
	if diff := cmp.Diff([]int{1, 2, 3}, indexes); diff != "" {
		t.Errorf("skipped indexes mismatch (-want +got):\n%s", diff)
	}
}

type fakePassLog struct {
	sources []string
}

func (f *fakePassLog) RecordPass(_ context.Context, source string, _ engine.Pass, _ time.Duration) error {
	f.sources = append(f.sources, source)
	return nil
}

func (f *fakePassLog) QueryPassLogs(_ context.Context, limit int) ([]storage.PassLog, error) {
	out := make([]storage.PassLog, 0, len(f.sources))
	for _, src := range f.sources {
		out = append(out, storage.PassLog{Source: src, Status: storage.PassSuccess})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TestReport verifies the stored plan is validated and the pass recorded.
func TestReport(t *testing.T) {
	s, _ := newTestServer(t, seedDoc)

	if rec := do(t, s, http.MethodGet, "/api/v1/passes", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("passes without log: status = %d, want 404", rec.Code)
	}

	passes := &fakePassLog{}
	s.SetPassLog(passes)

	rec := do(t, s, http.MethodGet, "/api/v1/report", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rows := decode[[]models.ReportRow](t, rec)
	if len(rows) != 2 || rows[0].Muscle != "back" || rows[1].Muscle != "chest" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Validation.Approved || !rows[1].Validation.Approved {
		t.Errorf("verdicts = %v, %v", rows[0].Validation, rows[1].Validation)
	}
	if len(passes.sources) != 1 || passes.sources[0] != "api" {
		t.Errorf("recorded = %v", passes.sources)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/passes?limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("passes status = %d", rec.Code)
	}
	if logs := decode[[]storage.PassLog](t, rec); len(logs) != 1 {
		t.Errorf("got %d pass logs, want 1", len(logs))
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/passes?limit=-1", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

// TestMuscles verifies the catalog lists every group, pair and the advisory value.
func TestMuscles(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, http.MethodGet, "/api/v1/muscles", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Muscles  []muscle.Profile `json:"muscles"`
		Pairs    [][2]string      `json:"trained_together"`
		Advisory int              `json:"advisory_max_rest_days"`
	}](t, rec)
	if len(got.Muscles) != 9 || len(got.Pairs) != 7 || got.Advisory < 1 {
		t.Errorf("catalog = %d muscles, %d pairs, advisory %d", len(got.Muscles), len(got.Pairs), got.Advisory)
	}
}

// TestMuscleForExercise covers lookup hits, misses and the missing parameter.
func TestMuscleForExercise(t *testing.T) {
	s, _ := newTestServer(t, "")
	tests := []struct {
		query  string
		status int
		muscle string
	}{
		{"name=Pull+Ups", http.StatusOK, "back"},
		{"name=calf+raise", http.StatusOK, "calves"},
		{"name=juggling", http.StatusNotFound, ""},
		{"", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, "/api/v1/exercises/muscle?"+tt.query, "", nil)
		if rec.Code != tt.status {
			t.Errorf("%q: status = %d, want %d", tt.query, rec.Code, tt.status)
			continue
		}
		if tt.muscle != "" {
			if got := decode[map[string]string](t, rec); got["muscle"] != tt.muscle {
				t.Errorf("%q: muscle = %q, want %q", tt.query, got["muscle"], tt.muscle)
			}
		}
	}
}
