package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/restday/internal/facts"
	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/snapshot"
)

func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	var e models.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	// The extraction side often knows the exercise but not the group.
	if strings.TrimSpace(e.Muscle) == "" && e.Exercises != "" {
		if g, ok := s.eng.KnowledgeBase().ForExercise(e.Exercises); ok {
			e.Muscle = string(g)
		}
	}

	stored, err := s.backend.Append(r.Context(), e)
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidEntry) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error("append entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backend.Load(r.Context())
	if err != nil {
		s.log.Warn("snapshot unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "snapshot unavailable: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleValidateOne(w http.ResponseWriter, r *http.Request) {
	m, date, ok := s.muscleAndDate(w, r)
	if !ok {
		return
	}
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.eng.ValidateOne(view, m, date))
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	m, date, ok := s.muscleAndDate(w, r)
	if !ok {
		return
	}
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"muscle":       m,
		"date":         models.FormatDate(date),
		"alternatives": s.eng.SuggestAlternatives(view, m, date),
	})
}

// plannedReport is the response of POST /api/v1/validate. Skipped lists the
// posted entries that could not be evaluated, by index.
type plannedReport struct {
	Rows    []models.ReportRow `json:"rows"`
	Skipped []facts.Skip       `json:"skipped"`
}

// handleValidatePlanned validates a posted list of planned entries against
// the stored history. Entries may omit entry_type. Entries without a muscle
// or a parsable date are skipped; the rest are still validated.
func (s *Server) handleValidatePlanned(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	planned := make([]models.PlannedEntry, 0, len(doc))
	report := plannedReport{Rows: []models.ReportRow{}, Skipped: []facts.Skip{}}
	for i, e := range doc {
		if e.EntryType != "" && e.EntryType != models.EntryPlanned {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("entry %d: entry_type must be planned", i)})
			return
		}
		if strings.TrimSpace(e.Muscle) == "" {
			report.Skipped = append(report.Skipped, facts.Skip{Index: i, Reason: "missing muscle"})
			continue
		}
		date, err := models.ParseDate(e.Date)
		if err != nil {
			report.Skipped = append(report.Skipped, facts.Skip{Index: i, Reason: err.Error()})
			continue
		}
		planned = append(planned, models.Planned(e, date))
	}
	for _, sk := range report.Skipped {
		s.log.Debug("skipped planned entry", "index", sk.Index, "reason", sk.Reason)
	}

	store := s.eng.NewStore()
	if _, err := s.eng.Reload(r.Context(), s.backend, store); err != nil {
		s.log.Warn("snapshot unavailable, returning empty report", "error", err)
		writeJSON(w, http.StatusOK, report)
		return
	}
	rows, err := s.eng.ValidateAll(r.Context(), store.View(), planned)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	report.Rows = rows
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pass, err := s.eng.Report(r.Context(), s.backend)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if s.passes != nil {
		if err := s.passes.RecordPass(r.Context(), "api", pass, time.Since(start)); err != nil {
			s.log.Warn("recording pass failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, pass.Rows)
}

func (s *Server) handleMuscles(w http.ResponseWriter, r *http.Request) {
	kb := s.eng.KnowledgeBase()
	writeJSON(w, http.StatusOK, map[string]any{
		"muscles":                kb.Profiles(),
		"trained_together":       kb.SynergyPairs(),
		"exercises":              kb.Exercises(),
		"advisory_max_rest_days": s.eng.AdvisoryMaxRestDays(),
	})
}

func (s *Server) handleMuscleForExercise(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	g, ok := s.eng.KnowledgeBase().ForExercise(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no muscle group known for exercise"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"exercise": name, "muscle": string(g)})
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	if s.passes == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "pass log requires the postgres backend"})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	logs, err := s.passes.QueryPassLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// muscleAndDate reads the muscle and date query parameters. The date
// defaults to today. It writes a 400 and returns false on bad input.
func (s *Server) muscleAndDate(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	m := r.URL.Query().Get("muscle")
	if m == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "muscle parameter required"})
		return "", time.Time{}, false
	}
	date := models.CivilDate(s.now())
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return "", time.Time{}, false
		}
		date = d
	}
	return m, date, true
}

// loadView builds a request-scoped fact store from the backend. A single
// check without history could approve an injured group, so it answers 503.
func (s *Server) loadView(w http.ResponseWriter, r *http.Request) (*facts.Snapshot, bool) {
	store := s.eng.NewStore()
	if _, err := s.eng.Reload(r.Context(), s.backend, store); err != nil {
		s.log.Warn("snapshot unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no workout data available"})
		return nil, false
	}
	return store.View(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
