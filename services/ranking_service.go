package services

import (
	"checkquest/models"
	"checkquest/pkg/gamification"
	"fmt"
	"time"
)

// Ranking periods
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// RankingService serves leaderboards, dashboards and personal progress
type RankingService struct {
	repo RankingRepository
}

// NewRankingService creates a new ranking service
func NewRankingService(repo RankingRepository) *RankingService {
	return &RankingService{repo: repo}
}

// PeriodStart returns the start of the calendar period containing at.
// Weeks start on Monday. The "all" period has no start.
func PeriodStart(period string, at time.Time) (*time.Time, error) {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodAll:
		return nil, nil
	case PeriodWeek, "":
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return &start, nil
	case PeriodMonth:
		start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &start, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}

// Leaderboard ranks the organization by XP earned in the period
func (rs *RankingService) Leaderboard(actor Actor, period string, limit int) ([]models.RankingRow, error) {
	from, err := PeriodStart(period, timeNow())
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := rs.repo.GetLeaderboard(actor.OrganizationID, from, limit)
	if err != nil {
		return nil, err
	}
	now := timeNow()
	for i := range rows {
		rows[i].CurrentStreak = gamification.ActiveStreak(rows[i].LastChecklistDate, now, rows[i].CurrentStreak)
		level := gamification.GetUserLevel(rows[i].TotalXP)
		rows[i].Level = level.Number
		rows[i].LevelName = level.Name
	}
	return rows, nil
}

// Dashboard aggregates the organization's compliance for the period
func (rs *RankingService) Dashboard(actor Actor, period string) (*models.DashboardStats, error) {
	now := timeNow()
	from, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}
	var since time.Time
	if from != nil {
		since = *from
	}
	return rs.repo.GetDashboardStats(actor.OrganizationID, since, now)
}

// Progress is a user's gamification state
type Progress struct {
	UserID        string                   `json:"user_id"`
	Name          string                   `json:"name"`
	XP            int                      `json:"xp"`
	Level         gamification.Level       `json:"level"`
	CurrentStreak int                      `json:"current_streak"`
	LongestStreak int                      `json:"longest_streak"`
	Badges        []EarnedBadge            `json:"badges"`
	Available     []gamification.Badge     `json:"available_badges"`
	Recent        []models.GamificationLog `json:"recent_activity"`
}

// EarnedBadge is a badge definition with the time it was awarded
type EarnedBadge struct {
	gamification.Badge
	AwardedAt time.Time `json:"awarded_at"`
}

// Progress returns XP, level, streak and badges for a user
func (rs *RankingService) Progress(userID string) (*Progress, error) {
	user, err := rs.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	held, err := rs.repo.ListUserBadges(userID)
	if err != nil {
		return nil, err
	}
	recent, err := rs.repo.ListGamificationLogs(userID, 20)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(held))
	earned := make([]EarnedBadge, 0, len(held))
	for _, h := range held {
		badge, ok := gamification.BadgeByCode(h.BadgeCode)
		if !ok {
			continue
		}
		owned[h.BadgeCode] = true
		earned = append(earned, EarnedBadge{Badge: badge, AwardedAt: h.AwardedAt})
	}

	available := make([]gamification.Badge, 0)
	for _, b := range gamification.Badges() {
		if !owned[b.Code] {
			available = append(available, b)
		}
	}

	return &Progress{
		UserID:        user.ID,
		Name:          user.Name,
		XP:            user.XP,
		Level:         gamification.GetUserLevel(user.XP),
		CurrentStreak: gamification.ActiveStreak(user.LastChecklistDate, timeNow(), user.CurrentStreak),
		LongestStreak: user.LongestStreak,
		Badges:        earned,
		Available:     available,
		Recent:        recent,
	}, nil
}
