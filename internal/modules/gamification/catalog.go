package gamification

import "strings"

type ArenaChallenge struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	BaseXP int64  `json:"base_xp"`
}

type Habit struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	XP    int64  `json:"xp"`
}

type FamilyChallenge struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	BaseXP int64  `json:"base_xp"`
}

var arenaChallenges = []ArenaChallenge{
	{Key: "pushup_challenge", Title: "Push-up Challenge", BaseXP: 20},
	{Key: "plank_hold", Title: "Plank Hold", BaseXP: 20},
	{Key: "kick_combo", Title: "Kick Combo", BaseXP: 25},
	{Key: "kata_form", Title: "Kata Form", BaseXP: 30},
	{Key: "balance_drill", Title: "Balance Drill", BaseXP: 15},
	{Key: "jump_rope", Title: "Jump Rope", BaseXP: 20},
}

var habits = []Habit{
	{Key: "make_bed", Title: "Make your bed", XP: 10},
	{Key: "homework", Title: "Finish homework", XP: 15},
	{Key: "practice_forms", Title: "Practice your forms", XP: 20},
	{Key: "help_at_home", Title: "Help at home", XP: 15},
	{Key: "read_20_minutes", Title: "Read for 20 minutes", XP: 15},
	{Key: "healthy_meal", Title: "Eat a healthy meal", XP: 10},
}

var familyChallenges = []FamilyChallenge{
	{Key: "parent_sparring", Title: "Parent Sparring", BaseXP: 40},
	{Key: "stretch_together", Title: "Stretch Together", BaseXP: 25},
	{Key: "family_quiz_night", Title: "Family Quiz Night", BaseXP: 30},
	{Key: "balance_battle", Title: "Balance Battle", BaseXP: 30},
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func lookupArena(key string) (ArenaChallenge, bool) {
	key = normalizeKey(key)
	for _, c := range arenaChallenges {
		if c.Key == key {
			return c, true
		}
	}
	return ArenaChallenge{}, false
}

func lookupHabit(key string) (Habit, bool) {
	key = normalizeKey(key)
	for _, h := range habits {
		if h.Key == key {
			return h, true
		}
	}
	return Habit{}, false
}

func lookupFamily(key string) (FamilyChallenge, bool) {
	key = normalizeKey(key)
	for _, c := range familyChallenges {
		if c.Key == key {
			return c, true
		}
	}
	return FamilyChallenge{}, false
}

type CatalogOutput struct {
	Arena         []ArenaChallenge  `json:"arena"`
	Habits        []Habit           `json:"habits"`
	Family        []FamilyChallenge `json:"family"`
	HabitDailyCap int64             `json:"habit_daily_cap"`
	VideoMultiple int64             `json:"video_multiplier"`
}

// Catalog returns copies so callers cannot mutate the fixed sets.
func (u Usecases) Catalog() CatalogOutput {
	return CatalogOutput{
		Arena:         append([]ArenaChallenge(nil), arenaChallenges...),
		Habits:        append([]Habit(nil), habits...),
		Family:        append([]FamilyChallenge(nil), familyChallenges...),
		HabitDailyCap: u.deps.Policy.HabitDailyCap,
		VideoMultiple: u.deps.Policy.VideoMultiplier,
	}
}
