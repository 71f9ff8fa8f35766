// Package game generates randomized integer-arithmetic questions and runs
// scored practice sessions over them.
package game

// Mode is a practice game category.
type Mode string

const (
	ModeOrdering       Mode = "ordering"
	ModeAddition       Mode = "addition"
	ModeSubtraction    Mode = "subtraction"
	ModeMultiplication Mode = "multiplication"
	ModeDivision       Mode = "division"
	ModePowers         Mode = "powers"
	ModeRoots          Mode = "roots"
	ModeCombined       Mode = "combined"
	ModeMixed          Mode = "mixed"
)

// Modes lists every playable mode.
var Modes = []Mode{
	ModeOrdering,
	ModeAddition,
	ModeSubtraction,
	ModeMultiplication,
	ModeDivision,
	ModePowers,
	ModeRoots,
	ModeCombined,
	ModeMixed,
}

// ParseMode returns the mode for s, or false if s is not a known mode.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Difficulty is a per-mode difficulty tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the tiers from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty returns the difficulty for s, or false if unknown.
func ParseDifficulty(s string) (Difficulty, bool) {
	for _, d := range Difficulties {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// CategoryKey is the XP ledger key for a mode/difficulty pair.
func CategoryKey(mode Mode, diff Difficulty) string {
	return string(mode) + "_" + string(diff)
}

// Kind distinguishes single-answer questions from sequential-ordering ones.
type Kind string

const (
	KindQuiz     Kind = "quiz"
	KindOrdering Kind = "ordering"
)

// Option is one clickable answer. Correctness never leaves the server.
type Option struct {
	Value   string `json:"value"`
	Correct bool   `json:"-"`
	// Num holds the numeric value for ordering options.
	Num int `json:"num,omitempty"`
}

// Question is a generated problem. For KindQuiz exactly one option is
// correct; for KindOrdering correctness is positional over Sequence.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options"`
	Kind        Kind     `json:"kind"`
	Sequence    []int    `json:"-"` // ascending; ordering only
	Explanation string   `json:"-"` // revealed after answering
}
