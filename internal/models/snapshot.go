package models

import (
	"strings"
	"time"

	"github.com/claude/restday/internal/muscle"
)

// EntryType distinguishes completed sessions (history) from planned ones.
type EntryType string

const (
	EntryCompleted EntryType = "completed"
	EntryPlanned   EntryType = "planned"
)

// Entry is one element of a snapshot document as written by the extraction
// collaborator. Field names match the flat JSON document.
type Entry struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp string    `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	UserInput string    `json:"user_input,omitempty" yaml:"user_input,omitempty"`
	Date      string    `json:"date" yaml:"date"`
	Muscle    string    `json:"muscle" yaml:"muscle"`
	Exercises string    `json:"exercises" yaml:"exercises"`
	Duration  float64   `json:"duration" yaml:"duration"`
	Injuries  string    `json:"injuries" yaml:"injuries"`
	EntryType EntryType `json:"entry_type" yaml:"entry_type"`
}

// HasInjury reports whether the entry asserts an injury on its muscle.
func (e Entry) HasInjury() bool {
	return strings.TrimSpace(e.Injuries) != ""
}

// Document is a full snapshot: an ordered sequence of entries.
type Document []Entry

// WorkoutRecord is a completed session on one muscle group.
type WorkoutRecord struct {
	Date      time.Time    `json:"date"`
	Muscle    muscle.Group `json:"muscle"`
	Exercises string       `json:"exercises"`
	Duration  float64      `json:"duration"`
}

// InjuryRecord asserts an injury on one muscle group from Date on.
type InjuryRecord struct {
	Date   time.Time    `json:"date"`
	Muscle muscle.Group `json:"muscle"`
}

// PlannedEntry is a session the user intends to do. It is transient input to
// the batch validator. Muscle keeps the raw token so invalid groups can be
// reported back verbatim.
type PlannedEntry struct {
	Date      time.Time
	RawDate   string
	Muscle    string
	Exercises string
	Duration  float64
	Injuries  string
}

// Planned converts a document entry with an already parsed date.
func Planned(e Entry, date time.Time) PlannedEntry {
	return PlannedEntry{
		Date:      date,
		RawDate:   e.Date,
		Muscle:    e.Muscle,
		Exercises: e.Exercises,
		Duration:  e.Duration,
		Injuries:  e.Injuries,
	}
}

// Validation is the verdict block of a report row.
type Validation struct {
	Approved    bool   `json:"approved"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation"`
}

// ReportRow is one line of a batch validation report. It echoes the planned
// entry and carries the verdict for it.
type ReportRow struct {
	Date                string     `json:"date"`
	Muscle              string     `json:"muscle"`
	Exercises           string     `json:"exercises"`
	Duration            float64    `json:"duration"`
	Injuries            string     `json:"injuries"`
	EntryType           EntryType  `json:"entry_type"`
	Validation          Validation `json:"validation"`
	Alternatives        string     `json:"alternatives,omitempty"`
	AdvisoryMaxRestDays int        `json:"advisory_max_rest_days"`
}
