package engine

import (
	"time"

	"github.com/claude/restday/internal/facts"
	"github.com/claude/restday/internal/muscle"
)

// suggest lists, in taxonomy order, the groups other than token's that are
// not synergistic with it and are allowed on date. An unknown token yields
// an empty list.
func suggest(kb *muscle.KnowledgeBase, view *facts.Snapshot, token string, date time.Time) []muscle.Group {
	out := []muscle.Group{}
	g, err := parseMuscle(kb, token)
	if err != nil {
		return out
	}
	for _, m := range kb.Groups() {
		if m == g || kb.Synergistic(m, g) {
			continue
		}
		if canTrain(kb, view, string(m), date).reason == Allowed {
			out = append(out, m)
		}
	}
	return out
}
