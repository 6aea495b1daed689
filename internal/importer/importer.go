// Package importer bulk-loads snapshot documents exported by the extraction
// side into a snapshot backend.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
	"github.com/claude/restday/internal/snapshot"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	Entries    int
	Completed  int
	Planned    int
	Injuries   int
	Skipped    int
	Duplicated int
}

// Importer reads JSON or YAML documents and replaces the target's contents
// with their merged entries.
type Importer struct {
	target snapshot.Replacer
	kb     *muscle.KnowledgeBase
	log    *slog.Logger
	dryRun bool
	now    func() time.Time
	stats  Stats
}

// New creates a new Importer.
func New(target snapshot.Replacer, kb *muscle.KnowledgeBase, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{target: target, kb: kb, log: log, dryRun: dryRun, now: time.Now}
}

// Import reads path, which is either a single document or a directory of
// *.json, *.yaml and *.yml documents processed in name order. Entries are
// merged in file order; a later entry with an already seen id is dropped.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := documentFiles(path)
	if err != nil {
		return &imp.stats, err
	}

	var doc models.Document
	seen := map[string]bool{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		entries, err := readDocument(f)
		if err != nil {
			imp.log.Warn("parse failed", "file", f, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		imp.stats.FilesProcessed++

		for i, e := range entries {
			e = snapshot.Stamp(e, imp.now())
			if seen[e.ID] {
				imp.stats.Duplicated++
				continue
			}
			if reason := imp.reject(e); reason != "" {
				imp.log.Info("skipping entry", "file", filepath.Base(f), "index", i, "reason", reason)
				imp.stats.Skipped++
				continue
			}
			seen[e.ID] = true
			imp.count(e)
			doc = append(doc, e)
		}
	}

	if imp.dryRun {
		return &imp.stats, nil
	}
	if doc == nil {
		doc = models.Document{}
	}
	if err := imp.target.Replace(ctx, doc); err != nil {
		return &imp.stats, fmt.Errorf("writing %d entries: %w", len(doc), err)
	}
	return &imp.stats, nil
}

// reject returns why e cannot be imported, or "" if it can. Planned entries
// may name unknown groups; the validator reports those back to the user.
func (imp *Importer) reject(e models.Entry) string {
	if err := snapshot.Validate(e); err != nil {
		return err.Error()
	}
	if e.EntryType == models.EntryCompleted {
		if _, ok := imp.kb.Parse(e.Muscle); !ok {
			return fmt.Sprintf("unknown muscle group %q", e.Muscle)
		}
	}
	return ""
}

func (imp *Importer) count(e models.Entry) {
	imp.stats.Entries++
	switch e.EntryType {
	case models.EntryCompleted:
		imp.stats.Completed++
		if e.HasInjury() {
			imp.stats.Injuries++
		}
	case models.EntryPlanned:
		imp.stats.Planned++
	}
}

func documentFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func readDocument(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return snapshot.Decode(f, snapshot.FormatFromPath(path))
}
