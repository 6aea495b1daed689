package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/restday/internal/engine"
)

// New creates an MCP server with all tools and resources registered. rec may
// be nil when passes are not persisted.
func New(eng *engine.Engine, ds DataSource, rec engine.PassRecorder, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("restday", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("restday workout validation server. Checks planned strength-training sessions against rest days, injury recovery windows and muscles trained together, and suggests safe alternatives."),
	)

	h := &handlers{eng: eng, ds: ds, rec: rec, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolValidateAllPlanned, Handler: h.validateAllPlanned},
		server.ServerTool{Tool: toolValidateWorkout, Handler: h.validateWorkout},
		server.ServerTool{Tool: toolSuggestAlternatives, Handler: h.suggestAlternatives},
		server.ServerTool{Tool: toolMuscleForExercise, Handler: h.muscleForExercise},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resKnowledgeBase, Handler: h.knowledgeBase},
		server.ServerResource{Resource: resPlannedWorkouts, Handler: h.plannedWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	eng *engine.Engine
	ds  DataSource
	rec engine.PassRecorder
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resKnowledgeBase = mcp.NewResource(
	"restday://knowledge_base",
	"Knowledge Base",
	mcp.WithResourceDescription("Muscle groups with rest-day thresholds and injury recovery windows, the pairs of groups trained together, and known exercises"),
	mcp.WithMIMEType("application/json"),
)

var resPlannedWorkouts = mcp.NewResource(
	"restday://planned_workouts",
	"Planned Workouts",
	mcp.WithResourceDescription("Planned sessions from the current workout snapshot, not yet validated"),
	mcp.WithMIMEType("application/json"),
)
