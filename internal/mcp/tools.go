package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/restday/internal/engine"
	"github.com/claude/restday/internal/models"
)

// dateOrToday parses a date argument, defaulting to today.
func dateOrToday(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return models.CivilDate(now), nil
	}
	return models.ParseDate(s)
}

// --- Tool definitions ---

var toolValidateAllPlanned = mcp.NewTool("validate_all_planned_workouts",
	mcp.WithDescription("Validate every planned workout in the current snapshot. Returns one row per planned entry with the verdict, an explanation, comma-separated alternatives when rejected, and the advisory max rest days. Returns an empty list when no snapshot is available."),
)

var toolValidateWorkout = mcp.NewTool("validate_workout",
	mcp.WithDescription("Check whether a muscle group can be trained on a date, given completed workouts and injuries in the snapshot. Rejections include alternatives."),
	mcp.WithString("muscle", mcp.Required(), mcp.Description("Muscle group (chest, back, legs, shoulders, biceps, triceps, abdominals, calves, glutes)")),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or DD.MM.YYYY). Defaults to today.")),
)

var toolSuggestAlternatives = mcp.NewTool("suggest_alternatives",
	mcp.WithDescription("List muscle groups that can be trained on a date instead of the given one. Excludes groups commonly trained together with it."),
	mcp.WithString("muscle", mcp.Required(), mcp.Description("Muscle group to replace")),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or DD.MM.YYYY). Defaults to today.")),
)

var toolMuscleForExercise = mcp.NewTool("muscle_for_exercise",
	mcp.WithDescription("Map a free-form exercise name (e.g. 'incline db bench') to the muscle group it mainly trains. Best effort."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name")),
)

// --- Tool handlers ---

func (h *handlers) validateAllPlanned(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	pass, err := h.eng.Report(ctx, h.ds)
	if err != nil {
		h.log.Error("mcp validate_all_planned_workouts", "error", err)
		return mcp.NewToolResultError("validation failed: " + err.Error()), nil
	}
	if h.rec != nil {
		if err := h.rec.RecordPass(ctx, "mcp", pass, time.Since(start)); err != nil {
			h.log.Warn("recording pass failed", "error", err)
		}
	}

	result, err := mcp.NewToolResultJSON(pass.Rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) validateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	muscle, err := req.RequireString("muscle")
	if err != nil {
		return mcp.NewToolResultError("muscle parameter is required"), nil
	}
	date, err := dateOrToday(req.GetString("date", ""), h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	store := h.eng.NewStore()
	if _, err := h.eng.Reload(ctx, h.ds, store); err != nil {
		return h.loadFailed("validate_workout", err), nil
	}

	result, err := mcp.NewToolResultJSON(h.eng.ValidateOne(store.View(), muscle, date))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) suggestAlternatives(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	muscle, err := req.RequireString("muscle")
	if err != nil {
		return mcp.NewToolResultError("muscle parameter is required"), nil
	}
	date, err := dateOrToday(req.GetString("date", ""), h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	store := h.eng.NewStore()
	if _, err := h.eng.Reload(ctx, h.ds, store); err != nil {
		return h.loadFailed("suggest_alternatives", err), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"muscle":       muscle,
		"date":         models.FormatDate(date),
		"alternatives": h.eng.SuggestAlternatives(store.View(), muscle, date),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) muscleForExercise(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	g, ok := h.eng.KnowledgeBase().ForExercise(exercise)
	if !ok {
		return mcp.NewToolResultError("no muscle group known for exercise: " + exercise), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]string{
		"exercise": exercise,
		"muscle":   string(g),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// loadFailed turns a snapshot load failure into a tool error. Validating
// against no history could approve an injured group, so single checks refuse.
func (h *handlers) loadFailed(tool string, err error) *mcp.CallToolResult {
	var le *engine.LoadError
	if errors.As(err, &le) {
		h.log.Warn("mcp "+tool+": no snapshot", "source", le.Source, "error", le.Err)
		return mcp.NewToolResultError("no workout data available")
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("loading workout data failed: " + err.Error())
}
