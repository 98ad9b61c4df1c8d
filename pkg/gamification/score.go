// Package gamification holds the scoring, XP, level, streak and badge rules.
// Everything here is pure arithmetic over static tables.
package gamification

import (
	"math"

	"checkquest/models"
)

// ScoreResult is the outcome of grading one checklist execution.
type ScoreResult struct {
	Score           float64           `json:"score"`
	Points          int               `json:"points"`
	MaxPoints       int               `json:"max_points"`
	NonConformities []models.Question `json:"non_conformities"`
	CriticalFailure bool              `json:"critical_failure"`
	Missing         []string          `json:"missing,omitempty"`
}

// CalculateScore grades responses against the template questions.
// Conform answers earn the question weight, non-conform earn nothing and
// "na" answers are excluded from the maximum. With nothing gradable the
// score is 100.
func CalculateScore(questions []models.Question, responses []models.Response) ScoreResult {
	answers := make(map[string]models.Answer, len(responses))
	for _, r := range responses {
		answers[r.QuestionID] = r.Answer
	}

	var result ScoreResult
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok {
			result.Missing = append(result.Missing, q.ID)
			continue
		}

		switch answer {
		case models.AnswerConform:
			result.Points += q.Weight
			result.MaxPoints += q.Weight
		case models.AnswerNonConform:
			result.MaxPoints += q.Weight
			result.NonConformities = append(result.NonConformities, q)
			if q.Critical {
				result.CriticalFailure = true
			}
		}
	}

	if result.MaxPoints == 0 {
		result.Score = 100
		return result
	}

	result.Score = round1(float64(result.Points) / float64(result.MaxPoints) * 100)
	return result
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
