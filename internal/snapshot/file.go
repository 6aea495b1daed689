package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/claude/restday/internal/models"
)

// FileSource keeps the snapshot in a single JSON or YAML document file.
// Writes replace the file atomically, so readers never see a partial
// document.
type FileSource struct {
	path   string
	format Format
	log      *slog.Logger
	now      func() time.Time
	readFile func(string) ([]byte, error)

	mu sync.Mutex // serializes read-modify-write cycles
}

var _ Backend = (*FileSource)(nil)

// NewFileSource returns a FileSource for path. The encoding follows the
// file extension.
func NewFileSource(path string, log *slog.Logger) *FileSource {
	return &FileSource{path: path, format: FormatFromPath(path), log: log, now: time.Now, readFile: os.ReadFile}
}

func (f *FileSource) String() string { return f.path }

// Load reads and decodes the document. A missing file is an error.
func (f *FileSource) Load(ctx context.Context) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := f.readFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Decode(bytes.NewReader(data), f.format)
}

// Append adds e to the end of the document, creating the file if needed.
// A document that cannot be parsed is replaced by a fresh one holding only
// e. Read errors are returned and leave the file untouched.
func (f *FileSource) Append(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := Validate(e); err != nil {
		return models.Entry{}, err
	}
	e = Stamp(e, f.now())

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return models.Entry{}, err
	}
	doc := models.Document{}
	data, err := f.readFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return models.Entry{}, fmt.Errorf("reading snapshot: %w", err)
	default:
		existing, err := Decode(bytes.NewReader(data), f.format)
		if err != nil {
			f.log.Warn("snapshot unparsable, starting a new document", "path", f.path, "error", err)
			break
		}
		doc = existing
	}

	doc = append(doc, e)
	if err := f.write(doc); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

// Replace overwrites the document with doc.
func (f *FileSource) Replace(ctx context.Context, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(doc)
}

// Close is a no-op; FileSource holds no open handles between calls.
func (f *FileSource) Close() error { return nil }

func (f *FileSource) write(doc models.Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f.format); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
