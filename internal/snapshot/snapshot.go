// Package snapshot reads and writes snapshot documents: the flat list of
// completed and planned entries the fact store is loaded from. Backends are
// a plain document file (this package), a SQLite journal and Postgres.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/claude/restday/internal/models"
)

// Source supplies the current snapshot document.
type Source interface {
	Load(ctx context.Context) (models.Document, error)
}

// Appender adds one entry to a snapshot and returns it as stored.
type Appender interface {
	Append(ctx context.Context, e models.Entry) (models.Entry, error)
}

// Replacer swaps the whole snapshot for doc.
type Replacer interface {
	Replace(ctx context.Context, doc models.Document) error
}

// Backend is a readable and writable snapshot store.
type Backend interface {
	Source
	Appender
	Replacer
	Close() error
}

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Decode parses a document. An empty input is an empty document.
func Decode(r io.Reader, f Format) (models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return models.Document{}, nil
	}

	var doc models.Document
	switch f {
	case YAML:
		err = yaml.Unmarshal(data, &doc)
	case JSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unknown document format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s document: %w", f, err)
	}
	if doc == nil {
		doc = models.Document{}
	}
	return doc, nil
}

// Encode writes doc in the given format.
func Encode(w io.Writer, doc models.Document, f Format) error {
	if doc == nil {
		doc = models.Document{}
	}
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml document: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json document: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown document format %q", f)
}

// ErrInvalidEntry is returned for entries that cannot be appended.
var ErrInvalidEntry = errors.New("invalid entry")

// Validate checks an entry before it is written. Loading is more lenient
// than this: malformed entries already in a document are skipped there.
func Validate(e models.Entry) error {
	if strings.TrimSpace(e.Muscle) == "" {
		return fmt.Errorf("%w: muscle is required", ErrInvalidEntry)
	}
	if _, err := models.ParseDate(e.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	switch e.EntryType {
	case models.EntryCompleted, models.EntryPlanned:
	default:
		return fmt.Errorf("%w: entry_type must be %q or %q", ErrInvalidEntry, models.EntryCompleted, models.EntryPlanned)
	}
	if e.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidEntry)
	}
	return nil
}

// Stamp fills in the bookkeeping fields of a new entry: a random id and the
// write time, unless the caller already set them.
func Stamp(e models.Entry, now time.Time) models.Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = now.UTC().Format(time.RFC3339)
	}
	return e
}
