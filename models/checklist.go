package models

import "time"

type Answer string

const (
	AnswerConform    Answer = "conform"
	AnswerNonConform Answer = "nonconform"
	AnswerNA         Answer = "na"
)

type EntryStatus string

const (
	EntryStatusInProgress EntryStatus = "in_progress"
	EntryStatusCompleted  EntryStatus = "completed"
)

// ChecklistTemplate is a reusable questionnaire made of ordered sections.
type ChecklistTemplate struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Active         bool              `json:"active"`
	CreatedBy      string            `json:"created_by"`
	Sections       []TemplateSection `json:"sections,omitempty"`
	QuestionCount  int               `json:"question_count"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type TemplateSection struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"template_id"`
	Title      string     `json:"title"`
	Position   int        `json:"position"`
	Questions  []Question `json:"questions"`
}

type Question struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	SectionID  string `json:"section_id"`
	Text       string `json:"text"`
	Weight     int    `json:"weight"`
	Critical   bool   `json:"critical"`
	Position   int    `json:"position"`
}

// Questions flattens the template's sections in display order.
func (t *ChecklistTemplate) Questions() []Question {
	var questions []Question
	for _, s := range t.Sections {
		questions = append(questions, s.Questions...)
	}
	return questions
}

// ChecklistEntry is one execution of a template by a user.
type ChecklistEntry struct {
	ID               string      `json:"id"`
	TemplateID       string      `json:"template_id"`
	TemplateName     string      `json:"template_name,omitempty"`
	OrganizationID   string      `json:"organization_id"`
	UserID           string      `json:"user_id"`
	UserName         string      `json:"user_name,omitempty"`
	Location         string      `json:"location"`
	Status           EntryStatus `json:"status"`
	Score            float64     `json:"score"`
	Points           int         `json:"points"`
	MaxPoints        int         `json:"max_points"`
	CriticalFailure  bool        `json:"critical_failure"`
	XPEarned         int         `json:"xp_earned"`
	ClientMutationID string      `json:"client_mutation_id,omitempty"`
	Responses        []Response  `json:"responses,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}

type Response struct {
	ID         string `json:"id"`
	EntryID    string `json:"entry_id"`
	QuestionID string `json:"question_id"`
	Answer     Answer `json:"answer"`
	Comment    string `json:"comment,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// EntryFilter narrows entry listings. Zero values mean "any".
type EntryFilter struct {
	OrganizationID string
	UserID         string
	TemplateID     string
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// ==================== REQUESTS ====================

type CreateTemplateRequest struct {
	Name        string                 `json:"name" validate:"required,min=2,max=120"`
	Description string                 `json:"description" validate:"max=1000"`
	Category    string                 `json:"category" validate:"max=60"`
	Sections    []CreateSectionRequest `json:"sections" validate:"required,min=1,dive"`
}

type CreateSectionRequest struct {
	Title     string                  `json:"title" validate:"required,max=120"`
	Questions []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Text     string `json:"text" validate:"required,max=500"`
	Weight   int    `json:"weight" validate:"gte=1,lte=10"`
	Critical bool   `json:"critical"`
}

type UpdateTemplateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=60"`
	Active      *bool  `json:"active"`
}

type SubmitEntryRequest struct {
	TemplateID       string                  `json:"template_id" validate:"required"`
	Location         string                  `json:"location" validate:"max=120"`
	ClientMutationID string                  `json:"client_mutation_id" validate:"max=100"`
	StartedAt        *time.Time              `json:"started_at"`
	Responses        []SubmitResponseRequest `json:"responses" validate:"required,min=1,dive"`
}

type SubmitResponseRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required,answer"`
	Comment    string `json:"comment" validate:"max=1000"`
	PhotoURL   string `json:"photo_url" validate:"omitempty,url"`
}
