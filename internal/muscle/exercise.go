package muscle

import "strings"

// ExerciseMapping ties a canonical exercise name and its aliases to the
// group it primarily trains.
type ExerciseMapping struct {
	Name    string   `json:"name"`
	Muscle  Group    `json:"muscle"`
	Aliases []string `json:"aliases,omitempty"`
}

// Common abbreviation expansions, applied word by word before matching.
var abbreviations = map[string]string{
	"db":    "dumbbell",
	"bb":    "barbell",
	"kb":    "kettlebell",
	"ohp":   "overhead press",
	"rdl":   "romanian deadlift",
	"sldl":  "stiff leg deadlift",
	"incl":  "incline",
	"decl":  "decline",
	"ext":   "extension",
	"abs":   "abdominals",
	"tris":  "triceps",
	"bis":   "biceps",
	"delts": "shoulders",
}

var standardExercises = []ExerciseMapping{
	{Name: "bench press", Muscle: Chest, Aliases: []string{"bench", "chest press", "incline press", "decline press"}},
	{Name: "push ups", Muscle: Chest, Aliases: []string{"push up", "pushups", "pushup", "press ups"}},
	{Name: "chest fly", Muscle: Chest, Aliases: []string{"flyes", "flys", "pec deck", "cable crossover"}},

	{Name: "pull ups", Muscle: Back, Aliases: []string{"pull up", "pullups", "chin ups", "chin up"}},
	{Name: "rows", Muscle: Back, Aliases: []string{"row", "barbell row", "seated row", "cable row"}},
	{Name: "lat pulldown", Muscle: Back, Aliases: []string{"pulldown", "pulldowns", "lat pulldowns"}},
	{Name: "deadlift", Muscle: Back, Aliases: []string{"deadlifts"}},

	{Name: "squats", Muscle: Legs, Aliases: []string{"squat", "front squat", "back squat", "hack squat"}},
	{Name: "lunges", Muscle: Legs, Aliases: []string{"lunge", "split squat"}},
	{Name: "leg press", Muscle: Legs},
	{Name: "leg extension", Muscle: Legs, Aliases: []string{"leg extensions"}},
	{Name: "leg curl", Muscle: Legs, Aliases: []string{"leg curls", "hamstring curl", "romanian deadlift", "stiff leg deadlift"}},

	{Name: "overhead press", Muscle: Shoulders, Aliases: []string{"shoulder press", "military press", "arnold press"}},
	{Name: "lateral raises", Muscle: Shoulders, Aliases: []string{"lateral raise", "side raises", "front raises", "face pulls"}},

	{Name: "curls", Muscle: Biceps, Aliases: []string{"curl", "bicep curl", "biceps curl", "hammer curl", "preacher curl"}},

	{Name: "tricep extension", Muscle: Triceps, Aliases: []string{"triceps extension", "overhead extension", "skull crushers", "skullcrushers"}},
	{Name: "pushdown", Muscle: Triceps, Aliases: []string{"pushdowns", "tricep pushdown", "rope pushdown"}},
	{Name: "dips", Muscle: Triceps, Aliases: []string{"dip", "close grip bench press"}},

	{Name: "crunches", Muscle: Abdominals, Aliases: []string{"crunch", "sit ups", "situps", "plank", "leg raises", "hanging leg raises"}},

	{Name: "calf raises", Muscle: Calves, Aliases: []string{"calf raise", "standing calf raises", "seated calf raises"}},

	{Name: "hip thrust", Muscle: Glutes, Aliases: []string{"hip thrusts", "glute bridge", "glute bridges", "glute kickback"}},
}

// ForExercise maps a free-form exercise label to the group it trains. An
// exact name or alias match wins; otherwise the longest name or alias that
// occurs as a whole-word phrase inside the label is used, earlier table rows
// winning ties. This is a best-effort helper for callers that extract workout
// facts from text; the evaluator never uses it.
func (kb *KnowledgeBase) ForExercise(label string) (Group, bool) {
	norm := expandAbbreviations(normalize(label))
	if norm == "" {
		return "", false
	}

	for _, m := range kb.exercises {
		if phraseEqual(norm, m.Name) {
			return m.Muscle, true
		}
		for _, a := range m.Aliases {
			if phraseEqual(norm, a) {
				return m.Muscle, true
			}
		}
	}

	var (
		best    Group
		bestLen int
	)
	padded := " " + norm + " "
	for _, m := range kb.exercises {
		for _, phrase := range append([]string{m.Name}, m.Aliases...) {
			p := normalize(phrase)
			if len(p) > bestLen && strings.Contains(padded, " "+p+" ") {
				best, bestLen = m.Muscle, len(p)
			}
		}
	}
	if bestLen > 0 {
		return best, true
	}

	// A label that simply names a group ("chest day", "legs").
	for _, word := range strings.Fields(norm) {
		if g, ok := kb.Parse(word); ok {
			return g, true
		}
	}
	return "", false
}

// Exercises returns the mapping table.
func (kb *KnowledgeBase) Exercises() []ExerciseMapping {
	return kb.exercises
}

func phraseEqual(norm, phrase string) bool {
	return norm == normalize(phrase)
}

func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if full, ok := abbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}
