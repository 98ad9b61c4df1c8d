package validator

import (
	"checkquest/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() models.SubmitEntryRequest {
	return models.SubmitEntryRequest{
		TemplateID: "tpl-1",
		Responses: []models.SubmitResponseRequest{
			{QuestionID: "q1", Answer: "conform"},
		},
	}
}

func TestValidator_SubmitEntry(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		mutate    func(*models.SubmitEntryRequest)
		wantError bool
		errorMsg  string
	}{
		{
			name:      "Valid entry",
			mutate:    func(r *models.SubmitEntryRequest) {},
			wantError: false,
		},
		{
			name:      "Missing template",
			mutate:    func(r *models.SubmitEntryRequest) { r.TemplateID = "" },
			wantError: true,
			errorMsg:  "template_id is required",
		},
		{
			name:      "No responses",
			mutate:    func(r *models.SubmitEntryRequest) { r.Responses = []models.SubmitResponseRequest{} },
			wantError: true,
			errorMsg:  "responses must contain at least 1 items",
		},
		{
			name:      "Unknown answer",
			mutate:    func(r *models.SubmitEntryRequest) { r.Responses[0].Answer = "maybe" },
			wantError: true,
			errorMsg:  "answer must be one of: conform, nonconform, na",
		},
		{
			name:      "Bad photo URL",
			mutate:    func(r *models.SubmitEntryRequest) { r.Responses[0].PhotoURL = "not a url" },
			wantError: true,
			errorMsg:  "photo_url must be a valid URL",
		},
		{
			name: "NA answer with photo",
			mutate: func(r *models.SubmitEntryRequest) {
				r.Responses[0].Answer = "na"
				r.Responses[0].PhotoURL = "https://cdn.example.com/p.jpg"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEntry()
			tt.mutate(&req)
			err := v.Validate(req)

			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidator_CreateTemplate(t *testing.T) {
	v := New()

	req := models.CreateTemplateRequest{
		Name: "Opening",
		Sections: []models.CreateSectionRequest{
			{Title: "Kitchen", Questions: []models.CreateQuestionRequest{{Text: "Floor clean", Weight: 2}}},
		},
	}
	assert.NoError(t, v.Validate(req))

	req.Sections[0].Questions[0].Weight = 0
	err := v.Validate(req)
	require.Error(t, err)

	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "weight", errs[0].Field)
	assert.Equal(t, "gte", errs[0].Tag)
}

func TestValidator_Schedule(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		cron      string
		timezone  string
		wantError bool
		tag       string
	}{
		{"Daily at eight", "0 8 * * *", "Europe/Lisbon", false, ""},
		{"Descriptor", "@daily", "UTC", false, ""},
		{"Six fields rejected", "0 0 8 * * *", "UTC", true, "cron"},
		{"Garbage cron", "every morning", "UTC", true, "cron"},
		{"Unknown timezone", "0 8 * * *", "Mars/Olympus", true, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(models.CreateScheduleRequest{
				TemplateID: "tpl-1",
				AssigneeID: "user-1",
				Cron:       tt.cron,
				Timezone:   tt.timezone,
			})
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			errs, ok := err.(ValidationErrors)
			require.True(t, ok)
			assert.Equal(t, tt.tag, errs[0].Tag)
		})
	}
}

func TestValidator_Enums(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(models.UpdateActionPlanRequest{Status: "done", Priority: "high"}))
	assert.NoError(t, v.Validate(models.UpdateActionPlanRequest{}))
	assert.Error(t, v.Validate(models.UpdateActionPlanRequest{Status: "closed"}))
	assert.Error(t, v.Validate(models.UpdateActionPlanRequest{Priority: "urgent"}))

	assert.NoError(t, v.Validate(models.UpdateRoleRequest{Role: "manager"}))
	err := v.Validate(models.UpdateRoleRequest{Role: "owner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of")
}

func TestValidator_ReplayRequest(t *testing.T) {
	v := New()

	ok := models.ReplayRequest{Mutations: []models.Mutation{
		{ID: "m1", Type: "entry.submit", Payload: []byte(`{}`)},
	}}
	assert.NoError(t, v.Validate(ok))

	bad := models.ReplayRequest{Mutations: []models.Mutation{
		{ID: "m1", Type: "note.delete", Payload: []byte(`{}`)},
	}}
	err := v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type must be one of")
}
