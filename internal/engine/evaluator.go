package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/restday/internal/facts"
	"github.com/claude/restday/internal/models"
	"github.com/claude/restday/internal/muscle"
)

// Reason is the outcome code of a validation. Its string value is the wire
// code used in JSON.
type Reason string

const (
	Allowed                Reason = "workout_allowed"
	InvalidMuscleGroup     Reason = "invalid_muscle_group"
	InjuryPresent          Reason = "injury_present"
	TrainedTogetherInjured Reason = "trained_together_injured"
	InsufficientRest       Reason = "insufficient_rest"
)

// Result is the answer to "can muscle be trained on date".
type Result struct {
	Muscle           string         `json:"muscle"`
	Date             string         `json:"date"`
	Approved         bool           `json:"approved"`
	Reason           Reason         `json:"reason"`
	Explanation      string         `json:"explanation"`
	Alternatives     []muscle.Group `json:"alternatives"`
	InjuredSynergist muscle.Group   `json:"injured_synergist,omitempty"`
}

// verdict is the bare decision, before alternatives and text are attached.
type verdict struct {
	group     muscle.Group
	reason    Reason
	synergist muscle.Group
}

func parseMuscle(kb *muscle.KnowledgeBase, token string) (muscle.Group, error) {
	g, ok := kb.Parse(token)
	if !ok {
		return "", &InvalidInputError{Token: token}
	}
	return g, nil
}

// canTrain applies the rules in priority order; the first that matches
// decides. It reads only kb and view, so it is safe to call concurrently.
func canTrain(kb *muscle.KnowledgeBase, view *facts.Snapshot, token string, date time.Time) verdict {
	g, err := parseMuscle(kb, token)
	if err != nil {
		return verdict{reason: InvalidMuscleGroup}
	}
	v := verdict{group: g}
	date = models.CivilDate(date)

	if injuredWithin(kb, view, g, date) {
		v.reason = InjuryPresent
		return v
	}
	for _, other := range kb.Synergists(g) {
		if injuredWithin(kb, view, other, date) {
			v.reason = TrainedTogetherInjured
			v.synergist = other
			return v
		}
	}
	if w, ok := view.MostRecentWorkout(g, date); ok {
		rest, _ := kb.RestDays(g)
		if models.DaysBetween(w.Date, date) < rest {
			v.reason = InsufficientRest
			return v
		}
	}
	v.reason = Allowed
	return v
}

// injuredWithin reports whether g has an injury still inside its own
// recovery window on date.
func injuredWithin(kb *muscle.KnowledgeBase, view *facts.Snapshot, g muscle.Group, date time.Time) bool {
	inj, ok := view.MostRecentInjury(g, date)
	if !ok {
		return false
	}
	window, _ := kb.RecoveryDays(g)
	return models.DaysBetween(inj.Date, date) < window
}

// explain renders the human-readable sentence for a result.
func explain(token string, v verdict, alternatives []muscle.Group) string {
	suffix := " Suggested alternatives : " + joinGroups(alternatives)
	switch v.reason {
	case Allowed:
		return fmt.Sprintf("Approved for the muscle (%s).", v.group)
	case InvalidMuscleGroup:
		return fmt.Sprintf("Unknown muscle group (%s).", strings.TrimSpace(token))
	case InjuryPresent:
		return "An injury is present." + suffix
	case TrainedTogetherInjured:
		return fmt.Sprintf("Not possible to train %s, because the muscle %s that is often trained with it is injured.", v.group, v.synergist) + suffix
	case InsufficientRest:
		return "Insufficient rest on the muscle group." + suffix
	}
	return ""
}

func joinGroups(gs []muscle.Group) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = string(g)
	}
	return strings.Join(parts, ", ")
}
