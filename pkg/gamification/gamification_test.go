package gamification

import (
	"testing"
	"time"

	"checkquest/models"

	"github.com/stretchr/testify/assert"
)

func questions() []models.Question {
	return []models.Question{
		{ID: "q1", Weight: 1},
		{ID: "q2", Weight: 2},
		{ID: "q3", Weight: 3, Critical: true},
		{ID: "q4", Weight: 4},
	}
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name         string
		responses    []models.Response
		wantScore    float64
		wantPoints   int
		wantMax      int
		wantNC       int
		wantCritical bool
		wantMissing  int
	}{
		{
			name: "All conform",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerConform},
				{QuestionID: "q2", Answer: models.AnswerConform},
				{QuestionID: "q3", Answer: models.AnswerConform},
				{QuestionID: "q4", Answer: models.AnswerConform},
			},
			wantScore: 100, wantPoints: 10, wantMax: 10,
		},
		{
			name: "Weighted nonconformity",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerConform},
				{QuestionID: "q2", Answer: models.AnswerNonConform},
				{QuestionID: "q3", Answer: models.AnswerConform},
				{QuestionID: "q4", Answer: models.AnswerConform},
			},
			wantScore: 80, wantPoints: 8, wantMax: 10, wantNC: 1,
		},
		{
			name: "NA excluded from max",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerNA},
				{QuestionID: "q2", Answer: models.AnswerConform},
				{QuestionID: "q3", Answer: models.AnswerNonConform},
				{QuestionID: "q4", Answer: models.AnswerNA},
			},
			wantScore: 40, wantPoints: 2, wantMax: 5, wantNC: 1, wantCritical: true,
		},
		{
			name: "Rounded to one decimal",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerConform},
				{QuestionID: "q2", Answer: models.AnswerNonConform},
				{QuestionID: "q3", Answer: models.AnswerNA},
				{QuestionID: "q4", Answer: models.AnswerNA},
			},
			wantScore: 33.3, wantPoints: 1, wantMax: 3, wantNC: 1,
		},
		{
			name: "Everything NA scores 100",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerNA},
				{QuestionID: "q2", Answer: models.AnswerNA},
				{QuestionID: "q3", Answer: models.AnswerNA},
				{QuestionID: "q4", Answer: models.AnswerNA},
			},
			wantScore: 100,
		},
		{
			name: "Unanswered questions reported",
			responses: []models.Response{
				{QuestionID: "q1", Answer: models.AnswerConform},
			},
			wantScore: 100, wantPoints: 1, wantMax: 1, wantMissing: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateScore(questions(), tt.responses)

			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantPoints, result.Points)
			assert.Equal(t, tt.wantMax, result.MaxPoints)
			assert.Len(t, result.NonConformities, tt.wantNC)
			assert.Equal(t, tt.wantCritical, result.CriticalFailure)
			assert.Len(t, result.Missing, tt.wantMissing)
		})
	}
}

func TestGetUserLevel(t *testing.T) {
	tests := []struct {
		xp           int
		wantNumber   int
		wantName     string
		wantNext     int
		wantProgress float64
	}{
		{-5, 1, "Trainee", 100, 0},
		{0, 1, "Trainee", 100, 0},
		{50, 1, "Trainee", 100, 50},
		{100, 2, "Kitchen Porter", 250, 0},
		{999, 4, "Line Cook", 1000, 99.8},
		{1000, 5, "Chef de Partie", 2000, 0},
		{12000, 10, "Compliance Legend", 12000, 100},
		{50000, 10, "Compliance Legend", 12000, 100},
	}

	for _, tt := range tests {
		level := GetUserLevel(tt.xp)
		assert.Equal(t, tt.wantNumber, level.Number, "xp=%d", tt.xp)
		assert.Equal(t, tt.wantName, level.Name, "xp=%d", tt.xp)
		assert.Equal(t, tt.wantNext, level.NextXP, "xp=%d", tt.xp)
		assert.InDelta(t, tt.wantProgress, level.Progress, 0.05, "xp=%d", tt.xp)
	}
	assert.Equal(t, 10, MaxLevel)
}

func TestExperienceFor(t *testing.T) {
	base, bonus := ExperienceFor(100, false, 1)
	assert.Equal(t, CompletionXP+50+PerfectScoreXP, base)
	assert.Equal(t, 0, bonus)

	base, bonus = ExperienceFor(80, false, 3)
	assert.Equal(t, CompletionXP+40, base)
	assert.Equal(t, 10, bonus)

	base, _ = ExperienceFor(80, true, 1)
	assert.Equal(t, CompletionXP+20, base)

	_, bonus = ExperienceFor(50, false, 40)
	assert.Equal(t, MaxStreakBonusXP, bonus)
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2025, 10, 17, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, 1, NextStreak("", today, 0))
	assert.Equal(t, 4, NextStreak("2025-10-16", today, 3))
	assert.Equal(t, 3, NextStreak("2025-10-17", today, 3))
	assert.Equal(t, 1, NextStreak("2025-10-15", today, 3))
	assert.Equal(t, 1, NextStreak("garbage", today, 3))
	assert.Equal(t, "2025-10-17", Day(today))
}

func TestActiveStreak(t *testing.T) {
	today := time.Date(2025, 10, 17, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, ActiveStreak("", today, 0))
	assert.Equal(t, 5, ActiveStreak("2025-10-17", today, 5))
	assert.Equal(t, 5, ActiveStreak("2025-10-16", today, 5))
	assert.Equal(t, 0, ActiveStreak("2025-10-15", today, 5))
}

func TestEarnedBadges(t *testing.T) {
	assert.Empty(t, EarnedBadges(models.UserStats{}))

	codes := func(bs []Badge) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.Code)
		}
		return out
	}

	earned := EarnedBadges(models.UserStats{CompletedEntries: 12, PerfectEntries: 1, LongestStreak: 8})
	assert.ElementsMatch(t, []string{"first_checklist", "ten_checklists", "perfect_score", "streak_7"}, codes(earned))

	b, ok := BadgeByCode("action_hero")
	assert.True(t, ok)
	assert.Equal(t, 50, b.XP)

	_, ok = BadgeByCode("nope")
	assert.False(t, ok)
	assert.Len(t, Badges(), 7)
}
