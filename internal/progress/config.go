package progress

// XPCaps fixes the maximum XP each category can contribute to the total.
// The table must match whatever any client shows; gates derive from it.
var XPCaps = map[string]int{
	"theory_intro":          50,
	"theory_operations":     50,
	"theory_multiplication": 50,
	"theory_powers":         50,
	"theory_advanced":       50,

	"ordering_easy": 100, "ordering_medium": 150, "ordering_hard": 200,
	"addition_easy": 100, "addition_medium": 150, "addition_hard": 200,
	"subtraction_easy": 100, "subtraction_medium": 150, "subtraction_hard": 200,
	"multiplication_easy": 100, "multiplication_medium": 150, "multiplication_hard": 200,
	"division_easy": 100, "division_medium": 150, "division_hard": 200,
	"powers_easy": 100, "powers_medium": 150, "powers_hard": 200,
	"roots_easy": 100, "roots_medium": 150, "roots_hard": 200,
	"combined_easy": 100, "combined_medium": 150, "combined_hard": 200,
	"mixed_easy": 150, "mixed_medium": 250, "mixed_hard": 500,
}

// defaultCap applies to keys missing from the table.
const defaultCap = 9999

// CapFor returns the XP cap for a category key.
func CapFor(key string) int {
	if cap, ok := XPCaps[key]; ok {
		return cap
	}
	return defaultCap
}

// AtCap reports whether a category has reached its cap.
func (r *Record) AtCap(key string) bool {
	return r.CategoryXPFor(key) >= CapFor(key)
}

// Achievement is a one-shot reward. Conditions are code, not data, so the
// table stays in lockstep with the gate logic.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XPReward    int    `json:"xp_reward"`

	Condition func(*Record) bool `json:"-"`
}

// Achievements is the static reward table, evaluated after every
// non-negative XP change.
var Achievements = []Achievement{
	{
		ID: "first_steps", Title: "Lehen Urratsak",
		Description: "Lortu zure lehenengo 100 XP.", Icon: "footprint", XPReward: 50,
		Condition: func(r *Record) bool { return r.XP >= 100 },
	},
	{
		ID: "streak_5", Title: "Beroketa",
		Description: "Lortu 5 eguneko bolada.", Icon: "local_fire_department", XPReward: 100,
		Condition: func(r *Record) bool { return r.LoginStreak >= 5 },
	},
	{
		ID: "streak_10", Title: "Sutan!",
		Description: "Lortu 10 eguneko bolada.", Icon: "whatshot", XPReward: 300,
		Condition: func(r *Record) bool { return r.LoginStreak >= 10 },
	},
	{
		ID: "level_5", Title: "Ikasle Aurreratua",
		Description: "Iritsi 5. Mailara.", Icon: "school", XPReward: 250,
		Condition: func(r *Record) bool { return r.Level >= 5 },
	},
	{
		ID: "level_10", Title: "Matematika Maisua",
		Description: "Iritsi 10. Mailara.", Icon: "military_tech", XPReward: 1000,
		Condition: func(r *Record) bool { return r.Level >= 10 },
	},
	{
		ID: "master_ordering", Title: "Ordenaren Zaindaria",
		Description: "Osatu Ordena (Hard).", Icon: "sort", XPReward: 400,
		Condition: func(r *Record) bool { return r.CategoryXPFor("ordering_hard") >= 200 },
	},
	{
		ID: "power_master", Title: "Potentzia Handia",
		Description: "Osatu Berreketak (Hard).", Icon: "electric_bolt", XPReward: 500,
		Condition: func(r *Record) bool { return r.CategoryXPFor("powers_hard") >= 200 },
	},
}

// AchievementByID looks up a static achievement definition.
func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
