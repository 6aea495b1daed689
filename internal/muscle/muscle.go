// Package muscle holds the static training knowledge base: the closed muscle
// group taxonomy, rest-day thresholds, injury-recovery windows, the synergy
// relation between groups that are trained together, and a best-effort
// exercise-to-muscle lookup.
//
// A KnowledgeBase is validated once at construction and is immutable after
// that, so it can be shared freely between goroutines.
package muscle

import (
	"fmt"
	"slices"
	"strings"
)

// Group is a muscle group from the closed taxonomy.
type Group string

const (
	Chest      Group = "chest"
	Back       Group = "back"
	Legs       Group = "legs"
	Shoulders  Group = "shoulders"
	Biceps     Group = "biceps"
	Triceps    Group = "triceps"
	Abdominals Group = "abdominals"
	Calves     Group = "calves"
	Glutes     Group = "glutes"
)

// String implements fmt.Stringer.
func (g Group) String() string { return string(g) }

// Profile is the per-group row of the knowledge base.
type Profile struct {
	Group        Group `json:"muscle"`
	RestDays     int   `json:"rest_days"`
	RecoveryDays int   `json:"injury_recovery_days"`
}

// Pair is one undirected edge of the synergy graph.
type Pair [2]Group

// Table is the raw, unvalidated content of a knowledge base.
type Table struct {
	Profiles  []Profile
	Synergy   []Pair
	Exercises []ExerciseMapping
}

// Allowed threshold values. Small isolated muscles rest one day, large
// compound ones two; recovery windows scale small/medium/large.
var (
	allowedRestDays     = []int{1, 2}
	allowedRecoveryDays = []int{14, 21, 28}
)

// Standard is the built-in table. Profile order is the taxonomy enumeration
// order used by the evaluator and the suggester.
var Standard = Table{
	Profiles: []Profile{
		{Group: Chest, RestDays: 2, RecoveryDays: 28},
		{Group: Back, RestDays: 2, RecoveryDays: 28},
		{Group: Legs, RestDays: 2, RecoveryDays: 28},
		{Group: Shoulders, RestDays: 2, RecoveryDays: 21},
		{Group: Biceps, RestDays: 1, RecoveryDays: 14},
		{Group: Triceps, RestDays: 1, RecoveryDays: 14},
		{Group: Abdominals, RestDays: 1, RecoveryDays: 21},
		{Group: Calves, RestDays: 1, RecoveryDays: 14},
		{Group: Glutes, RestDays: 2, RecoveryDays: 28},
	},
	Synergy: []Pair{
		{Chest, Triceps},
		{Chest, Shoulders},
		{Chest, Abdominals},
		{Back, Biceps},
		{Shoulders, Triceps},
		{Legs, Glutes},
		{Legs, Calves},
	},
	Exercises: standardExercises,
}

// KnowledgeBase is the validated, read-only lookup surface.
type KnowledgeBase struct {
	order     []Group
	profiles  map[Group]Profile
	synergy   map[Group]map[Group]bool
	synergist map[Group][]Group
	exercises []ExerciseMapping
	maxRest   int
}

// New validates t and builds a KnowledgeBase from it. Any inconsistency is
// reported as a *ConfigurationError.
func New(t Table) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		profiles:  make(map[Group]Profile, len(t.Profiles)),
		synergy:   make(map[Group]map[Group]bool),
		synergist: make(map[Group][]Group),
	}

	if len(t.Profiles) == 0 {
		return nil, configError("profiles", "taxonomy is empty")
	}
	for _, p := range t.Profiles {
		if p.Group == "" || p.Group != Group(normalize(string(p.Group))) {
			return nil, configError("profiles", fmt.Sprintf("group %q is not a normalized token", p.Group))
		}
		if _, dup := kb.profiles[p.Group]; dup {
			return nil, configError("profiles", fmt.Sprintf("group %q listed twice", p.Group))
		}
		if !slices.Contains(allowedRestDays, p.RestDays) {
			return nil, configError("rest_days", fmt.Sprintf("%s: %d days is not one of %v", p.Group, p.RestDays, allowedRestDays))
		}
		if !slices.Contains(allowedRecoveryDays, p.RecoveryDays) {
			return nil, configError("injury_recovery_days", fmt.Sprintf("%s: %d days is not one of %v", p.Group, p.RecoveryDays, allowedRecoveryDays))
		}
		kb.profiles[p.Group] = p
		kb.order = append(kb.order, p.Group)
		kb.maxRest = max(kb.maxRest, p.RestDays)
	}

	for _, pair := range t.Synergy {
		a, b := pair[0], pair[1]
		if !kb.IsValid(a) || !kb.IsValid(b) {
			return nil, configError("synergy", fmt.Sprintf("pair %s-%s references a group outside the taxonomy", a, b))
		}
		if a == b {
			return nil, configError("synergy", fmt.Sprintf("group %s paired with itself", a))
		}
		kb.link(a, b)
		kb.link(b, a)
	}
	// Synergists are listed in taxonomy order, not declaration order.
	for _, g := range kb.order {
		for _, other := range kb.order {
			if kb.synergy[g][other] {
				kb.synergist[g] = append(kb.synergist[g], other)
			}
		}
	}

	for _, m := range t.Exercises {
		if normalize(m.Name) == "" {
			return nil, configError("exercises", "empty exercise name")
		}
		if !kb.IsValid(m.Muscle) {
			return nil, configError("exercises", fmt.Sprintf("%q maps to unknown group %q", m.Name, m.Muscle))
		}
		kb.exercises = append(kb.exercises, m)
	}

	return kb, nil
}

// Load builds the knowledge base from the Standard table.
func Load() (*KnowledgeBase, error) {
	return New(Standard)
}

func (kb *KnowledgeBase) link(a, b Group) {
	if kb.synergy[a] == nil {
		kb.synergy[a] = make(map[Group]bool)
	}
	kb.synergy[a][b] = true
}

// Parse normalizes a free-form token (case, surrounding space) and reports
// whether it names a group of the taxonomy.
func (kb *KnowledgeBase) Parse(token string) (Group, bool) {
	g := Group(normalize(token))
	if _, ok := kb.profiles[g]; !ok {
		return "", false
	}
	return g, true
}

// IsValid reports whether g belongs to the taxonomy. g must already be
// normalized; use Parse for raw input.
func (kb *KnowledgeBase) IsValid(g Group) bool {
	_, ok := kb.profiles[g]
	return ok
}

// Groups returns the taxonomy in enumeration order.
func (kb *KnowledgeBase) Groups() []Group {
	return slices.Clone(kb.order)
}

// Profiles returns every group's thresholds in enumeration order.
func (kb *KnowledgeBase) Profiles() []Profile {
	out := make([]Profile, 0, len(kb.order))
	for _, g := range kb.order {
		out = append(out, kb.profiles[g])
	}
	return out
}

// RestDays returns the minimum number of days between two sessions on g.
func (kb *KnowledgeBase) RestDays(g Group) (int, bool) {
	p, ok := kb.profiles[g]
	return p.RestDays, ok
}

// RecoveryDays returns the injury-recovery window for g.
func (kb *KnowledgeBase) RecoveryDays(g Group) (int, bool) {
	p, ok := kb.profiles[g]
	return p.RecoveryDays, ok
}

// MaxRestDays is the largest rest threshold in the taxonomy.
func (kb *KnowledgeBase) MaxRestDays() int { return kb.maxRest }

// Synergistic reports whether a and b are commonly trained together.
// The relation is symmetric and irreflexive; unknown groups are never
// synergistic with anything.
func (kb *KnowledgeBase) Synergistic(a, b Group) bool {
	return kb.synergy[a][b]
}

// Synergists returns the groups synergistic with g in taxonomy order.
func (kb *KnowledgeBase) Synergists(g Group) []Group {
	return kb.synergist[g]
}

// SynergyPairs lists each undirected edge once, ordered by taxonomy position.
func (kb *KnowledgeBase) SynergyPairs() []Pair {
	var out []Pair
	for i, a := range kb.order {
		for _, b := range kb.order[i+1:] {
			if kb.synergy[a][b] {
				out = append(out, Pair{a, b})
			}
		}
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
