package mcp

import (
	"context"

	"github.com/claude/restday/internal/journal"
	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/snapshot"
	"github.com/claude/restday/internal/storage"
)

// DataSource supplies the snapshot document for MCP tools. Every local
// backend and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Load(ctx context.Context) (models.Document, error)
}

// Compile-time checks: local backends satisfy DataSource.
var (
	_ DataSource = (*snapshot.FileSource)(nil)
	_ DataSource = (*journal.Journal)(nil)
	_ DataSource = (*storage.DB)(nil)
)
