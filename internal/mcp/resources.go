package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
)

// catalog is the JSON view of the knowledge base.
type catalog struct {
	Muscles   []muscle.Profile         `json:"muscles"`
	Synergy   []muscle.Pair            `json:"trained_together"`
	Exercises []muscle.ExerciseMapping `json:"exercises"`
	MaxRest   int                      `json:"advisory_max_rest_days"`
}

func newCatalog(kb *muscle.KnowledgeBase, advisory int) catalog {
	return catalog{
		Muscles:   kb.Profiles(),
		Synergy:   kb.SynergyPairs(),
		Exercises: kb.Exercises(),
		MaxRest:   advisory,
	}
}

func (h *handlers) knowledgeBase(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, newCatalog(h.eng.KnowledgeBase(), h.eng.AdvisoryMaxRestDays()))
}

func (h *handlers) plannedWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := h.ds.Load(ctx)
	if err != nil {
		h.log.Warn("planned_workouts: snapshot unavailable", "error", err)
		doc = nil
	}

	planned := []models.Entry{}
	for _, e := range doc {
		if e.EntryType == models.EntryPlanned {
			planned = append(planned, e)
		}
	}
	return jsonResource(req.Params.URI, planned)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
