package gamification

import "math"

const (
	CompletionXP     = 10
	PerfectScoreXP   = 25
	StreakXPPerDay   = 5
	MaxStreakBonusXP = 50
	ActionPlanDoneXP = 15
)

// ExperienceFor returns the XP for a completed checklist, split into the
// score part and the streak bonus.
func ExperienceFor(score float64, criticalFailure bool, streak int) (base int, streakBonus int) {
	scoreXP := int(math.Round(score / 2))
	if criticalFailure {
		scoreXP /= 2
	}

	base = CompletionXP + scoreXP
	if score >= 100 {
		base += PerfectScoreXP
	}

	if streak > 1 {
		streakBonus = (streak - 1) * StreakXPPerDay
		if streakBonus > MaxStreakBonusXP {
			streakBonus = MaxStreakBonusXP
		}
	}
	return base, streakBonus
}
