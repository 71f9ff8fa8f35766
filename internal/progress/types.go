// Package progress owns the persisted user progress record: capped
// per-category XP pools, levels, achievements and the unlock gates derived
// from them.
package progress

import (
	"slices"
	"strings"
	"time"
)

// XPPerLevel is the total-XP width of one level.
const XPPerLevel = 500

// Record is a user's progress document. Levels and unlock flags are always
// recomputed from the counters here, never stored separately.
type Record struct {
	ID           string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
	Guest        bool   `json:"guest,omitempty"`

	XP           int            `json:"xp"`
	Level        int            `json:"level"`
	LoginStreak  int            `json:"login_streak"`
	LastLogin    time.Time      `json:"last_login"`
	CategoryXP   map[string]int `json:"category_xp"`
	Lessons      []string       `json:"completed_lessons"`
	Achievements []string       `json:"unlocked_achievements"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewRecord creates a zeroed record for a freshly registered user. The
// login streak starts at 1: registering counts as the first login day.
func NewRecord(id, email, displayName string, now time.Time) *Record {
	return &Record{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		Level:        1,
		LoginStreak:  1,
		LastLogin:    now,
		CategoryXP:   map[string]int{},
		Lessons:      []string{},
		Achievements: []string{},
		CreatedAt:    now,
	}
}

// LevelFor computes the level for a total XP amount.
func LevelFor(xp int) int {
	return xp/XPPerLevel + 1
}

// CategoryXPFor returns the XP accumulated in one category.
func (r *Record) CategoryXPFor(key string) int {
	return r.CategoryXP[key]
}

// HasLesson reports whether the theory quiz with the given key was passed.
func (r *Record) HasLesson(key string) bool {
	return slices.Contains(r.Lessons, key)
}

// HasAchievement reports whether the achievement is already unlocked.
func (r *Record) HasAchievement(id string) bool {
	return slices.Contains(r.Achievements, id)
}

// Clone returns a deep copy, so stores can hand out records without
// aliasing their internal state.
func (r *Record) Clone() *Record {
	out := *r
	out.CategoryXP = make(map[string]int, len(r.CategoryXP))
	for k, v := range r.CategoryXP {
		out.CategoryXP[k] = v
	}
	out.Lessons = slices.Clone(r.Lessons)
	out.Achievements = slices.Clone(r.Achievements)
	return &out
}

// IsGuestID reports whether the user identifier denotes an ephemeral guest.
// Guest progress is never persisted.
func IsGuestID(id string) bool {
	return strings.HasPrefix(id, "guest_")
}

// IsTheoryKey reports whether a category key is a theory-quiz pool.
func IsTheoryKey(key string) bool {
	return strings.HasPrefix(key, "theory_")
}

// TheoryKey builds the category key for a curriculum unit id.
func TheoryKey(unitID string) string {
	return "theory_" + unitID
}
