package gamification

import "checkquest/models"

// Badge is a static achievement definition.
type Badge struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
	earned      func(models.UserStats) bool
}

var badges = []Badge{
	{
		Code: "first_checklist", Name: "First Shift", XP: 10,
		Description: "Completed a first checklist",
		earned:      func(s models.UserStats) bool { return s.CompletedEntries >= 1 },
	},
	{
		Code: "ten_checklists", Name: "Regular", XP: 25,
		Description: "Completed 10 checklists",
		earned:      func(s models.UserStats) bool { return s.CompletedEntries >= 10 },
	},
	{
		Code: "fifty_checklists", Name: "Veteran", XP: 100,
		Description: "Completed 50 checklists",
		earned:      func(s models.UserStats) bool { return s.CompletedEntries >= 50 },
	},
	{
		Code: "perfect_score", Name: "Spotless", XP: 20,
		Description: "Scored 100% on a checklist",
		earned:      func(s models.UserStats) bool { return s.PerfectEntries >= 1 },
	},
	{
		Code: "streak_7", Name: "On Fire", XP: 30,
		Description: "Kept a 7-day streak",
		earned:      func(s models.UserStats) bool { return s.LongestStreak >= 7 },
	},
	{
		Code: "streak_30", Name: "Unstoppable", XP: 150,
		Description: "Kept a 30-day streak",
		earned:      func(s models.UserStats) bool { return s.LongestStreak >= 30 },
	},
	{
		Code: "action_hero", Name: "Action Hero", XP: 50,
		Description: "Resolved 10 action plans",
		earned:      func(s models.UserStats) bool { return s.ResolvedActionPlans >= 10 },
	},
}

// Badges returns the full badge table.
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// BadgeByCode looks up a badge definition.
func BadgeByCode(code string) (Badge, bool) {
	for _, b := range badges {
		if b.Code == code {
			return b, true
		}
	}
	return Badge{}, false
}

// EarnedBadges returns every badge whose threshold stats meet.
func EarnedBadges(stats models.UserStats) []Badge {
	var earned []Badge
	for _, b := range badges {
		if b.earned(stats) {
			earned = append(earned, b)
		}
	}
	return earned
}
