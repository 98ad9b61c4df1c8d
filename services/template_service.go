package services

import (
	"checkquest/database"
	"checkquest/models"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// TemplateService handles business logic for checklist templates
type TemplateService struct {
	repo TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// Create builds a template tree from the request and stores it
func (ts *TemplateService) Create(actor Actor, req models.CreateTemplateRequest) (*models.ChecklistTemplate, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	existing, err := ts.repo.GetTemplateByName(actor.OrganizationID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTemplateAlreadyExists
	}

	now := timeNow()
	t := &models.ChecklistTemplate{
		ID:             uuid.New().String(),
		OrganizationID: actor.OrganizationID,
		Name:           name,
		Description:    req.Description,
		Category:       req.Category,
		Active:         true,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	position := 0
	for i, sr := range req.Sections {
		section := models.TemplateSection{
			ID:         uuid.New().String(),
			TemplateID: t.ID,
			Title:      sr.Title,
			Position:   i,
		}
		for _, qr := range sr.Questions {
			if qr.Weight < 1 {
				qr.Weight = 1
			}
			section.Questions = append(section.Questions, models.Question{
				ID:         uuid.New().String(),
				TemplateID: t.ID,
				SectionID:  section.ID,
				Text:       qr.Text,
				Weight:     qr.Weight,
				Critical:   qr.Critical,
				Position:   position,
			})
			position++
		}
		t.Sections = append(t.Sections, section)
	}

	if position == 0 {
		return nil, ErrEmptyTemplate
	}
	t.QuestionCount = position

	if err := ts.repo.CreateTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a template of the actor's organization with its question tree
func (ts *TemplateService) Get(actor Actor, templateID string) (*models.ChecklistTemplate, error) {
	t, err := ts.repo.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.OrganizationID != actor.OrganizationID {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// List returns the organization's templates. Operators only see active ones.
func (ts *TemplateService) List(actor Actor, includeInactive bool) ([]models.ChecklistTemplate, error) {
	activeOnly := !(includeInactive && actor.Role.CanManage())
	return ts.repo.ListTemplates(actor.OrganizationID, activeOnly)
}

// Update changes a template's header fields and active flag
func (ts *TemplateService) Update(actor Actor, templateID string, req models.UpdateTemplateRequest) (*models.ChecklistTemplate, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}

	t, err := ts.Get(actor, templateID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != t.Name {
		existing, err := ts.repo.GetTemplateByName(actor.OrganizationID, name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrTemplateAlreadyExists
		}
	}

	t.Name = name
	t.Description = req.Description
	t.Category = req.Category
	if req.Active != nil {
		t.Active = *req.Active
	}
	t.UpdatedAt = timeNow()

	if err := ts.repo.UpdateTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetActive toggles whether operators can execute a template
func (ts *TemplateService) SetActive(actor Actor, templateID string, active bool) (*models.ChecklistTemplate, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}

	t, err := ts.Get(actor, templateID)
	if err != nil {
		return nil, err
	}
	t.Active = active
	t.UpdatedAt = timeNow()
	if err := ts.repo.UpdateTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template that has never been executed
func (ts *TemplateService) Delete(actor Actor, templateID string) error {
	if !actor.Role.CanManage() {
		return ErrForbidden
	}
	if _, err := ts.Get(actor, templateID); err != nil {
		return err
	}

	err := ts.repo.DeleteTemplate(templateID)
	if errors.Is(err, database.ErrTemplateInUse) {
		return ErrTemplateInUse
	}
	return err
}
