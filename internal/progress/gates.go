package progress

import (
	"errors"

	"github.com/zoa-eus/osoak/internal/game"
)

// ErrTheoryRequired is returned when a mode's theory quiz has not been
// passed yet.
var ErrTheoryRequired = errors.New("progress: theory lesson not completed")

// unitMastery lists the hard categories whose mastery opens the next
// theory unit and game group. Reaching the cap in any one of a group's
// entries counts.
var unitMastery = [][]string{
	{"ordering_hard"},
	{"addition_hard", "subtraction_hard"},
	{"multiplication_hard", "division_hard"},
	{"powers_hard", "roots_hard"},
}

// requiredTheory maps a game mode to the theory lesson that must be passed
// before playing it. Mixed mode has no theory gate.
var requiredTheory = map[game.Mode]string{
	game.ModeOrdering:       "theory_intro",
	game.ModeAddition:       "theory_operations",
	game.ModeSubtraction:    "theory_operations",
	game.ModeMultiplication: "theory_multiplication",
	game.ModeDivision:       "theory_multiplication",
	game.ModePowers:         "theory_powers",
	game.ModeRoots:          "theory_powers",
	game.ModeCombined:       "theory_advanced",
}

func masteredAny(r *Record, categories []string) bool {
	for _, cat := range categories {
		if r.AtCap(cat) {
			return true
		}
	}
	return false
}

// TheoryUnlocked reports whether theory unit n (1-based, in curriculum
// order) is open. The first unit always is; each later unit opens once
// the previous unit's practice is mastered on hard.
func TheoryUnlocked(r *Record, unit int) bool {
	if unit <= 1 {
		return true
	}
	if unit-2 >= len(unitMastery) {
		return false
	}
	return masteredAny(r, unitMastery[unit-2])
}

// GameUnlocked reports whether a mode's XP gate is satisfied.
func GameUnlocked(r *Record, mode game.Mode) bool {
	switch mode {
	case game.ModeOrdering:
		return true
	case game.ModeAddition, game.ModeSubtraction:
		return masteredAny(r, unitMastery[0])
	case game.ModeMultiplication, game.ModeDivision:
		return masteredAny(r, unitMastery[1])
	case game.ModePowers, game.ModeRoots:
		return masteredAny(r, unitMastery[2])
	case game.ModeCombined:
		return masteredAny(r, unitMastery[3])
	case game.ModeMixed:
		return r.Level >= 5
	}
	return false
}

// DifficultyLocked reports whether a difficulty is still closed for a
// mode. Easy is always open; each step opens when the previous one's
// category hits its cap.
func DifficultyLocked(r *Record, mode game.Mode, diff game.Difficulty) bool {
	switch diff {
	case game.Medium:
		return !r.AtCap(game.CategoryKey(mode, game.Easy))
	case game.Hard:
		return !r.AtCap(game.CategoryKey(mode, game.Medium))
	}
	return false
}

// RequiredTheory returns the theory lesson key gating a mode, or "" when
// the mode has no theory gate.
func RequiredTheory(mode game.Mode) string {
	return requiredTheory[mode]
}

// ResolvePlay applies the unlock gates to a play request. A mode whose XP
// gate fails downgrades to ordering, and a locked difficulty downgrades
// to easy. An unpassed theory gate is an error instead of a downgrade.
func ResolvePlay(r *Record, mode game.Mode, diff game.Difficulty) (game.Mode, game.Difficulty, error) {
	if !GameUnlocked(r, mode) {
		mode = game.ModeOrdering
	}
	if key := RequiredTheory(mode); key != "" && !r.HasLesson(key) {
		return mode, diff, ErrTheoryRequired
	}
	if DifficultyLocked(r, mode, diff) {
		diff = game.Easy
	}
	return mode, diff, nil
}
