package models

import "time"

type GamificationKind string

const (
	KindChecklistCompleted GamificationKind = "checklist_completed"
	KindStreakBonus        GamificationKind = "streak_bonus"
	KindActionPlanDone     GamificationKind = "action_plan_done"
	KindBadgeEarned        GamificationKind = "badge_earned"
)

// GamificationLog is one XP movement for a user.
type GamificationLog struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	EntryID     string           `json:"entry_id,omitempty"`
	Kind        GamificationKind `json:"kind"`
	XP          int              `json:"xp"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

type UserBadge struct {
	UserID    string    `json:"user_id"`
	BadgeCode string    `json:"badge_code"`
	AwardedAt time.Time `json:"awarded_at"`
}

// RankingRow is one leaderboard line.
type RankingRow struct {
	Position      int    `json:"position"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	XP            int    `json:"xp"`
	TotalXP       int    `json:"total_xp"`
	Level         int    `json:"level"`
	LevelName     string `json:"level_name"`
	CurrentStreak int    `json:"current_streak"`

	LastChecklistDate string `json:"last_checklist_date,omitempty"`
}

// UserStats feeds badge evaluation.
type UserStats struct {
	CompletedEntries    int
	PerfectEntries      int
	CurrentStreak       int
	LongestStreak       int
	ResolvedActionPlans int
}

type TemplateAverage struct {
	TemplateID   string  `json:"template_id"`
	TemplateName string  `json:"template_name"`
	Entries      int     `json:"entries"`
	AverageScore float64 `json:"average_score"`
}

type DashboardStats struct {
	Entries          int               `json:"entries"`
	AverageScore     float64           `json:"average_score"`
	OpenActionPlans  int               `json:"open_action_plans"`
	OverdueActions   int               `json:"overdue_action_plans"`
	TemplateAverages []TemplateAverage `json:"template_averages"`
}
