package services

import (
	"checkquest/models"
	"checkquest/validator"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedRepository defines the data access needed to seed an organization
type SeedRepository interface {
	GetOrganizationBySlug(slug string) (*models.Organization, error)
	CreateOrganization(org *models.Organization) error
}

// SeedFile is the YAML document imported by the seed command
type SeedFile struct {
	Templates []SeedTemplate `yaml:"templates"`
}

type SeedTemplate struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Category    string        `yaml:"category"`
	Sections    []SeedSection `yaml:"sections"`
}

type SeedSection struct {
	Title     string         `yaml:"title"`
	Questions []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Text     string `yaml:"text"`
	Weight   int    `yaml:"weight"`
	Critical bool   `yaml:"critical"`
}

func (st SeedTemplate) request() models.CreateTemplateRequest {
	req := models.CreateTemplateRequest{
		Name:        st.Name,
		Description: st.Description,
		Category:    st.Category,
	}
	for _, s := range st.Sections {
		section := models.CreateSectionRequest{Title: s.Title}
		for _, q := range s.Questions {
			weight := q.Weight
			if weight == 0 {
				weight = 1
			}
			section.Questions = append(section.Questions, models.CreateQuestionRequest{
				Text:     q.Text,
				Weight:   weight,
				Critical: q.Critical,
			})
		}
		req.Sections = append(req.Sections, section)
	}
	return req
}

// SeedResult reports what an import did
type SeedResult struct {
	Created []string
	Skipped []string
}

// SeedService imports checklist templates from YAML
type SeedService struct {
	repo      SeedRepository
	templates *TemplateService
	validator *validator.Validator
}

// NewSeedService creates a new seed service
func NewSeedService(repo SeedRepository, templates *TemplateService, v *validator.Validator) *SeedService {
	return &SeedService{repo: repo, templates: templates, validator: v}
}

// Import reads a seed document and creates its templates in the organization,
// creating the organization when needed. Templates whose name already exists
// are skipped.
func (ss *SeedService) Import(orgSlug string, r io.Reader) (*SeedResult, error) {
	var file SeedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	org, err := ss.repo.GetOrganizationBySlug(orgSlug)
	if err != nil {
		return nil, err
	}
	if org == nil {
		org = &models.Organization{
			ID:        uuid.New().String(),
			Name:      organizationName(orgSlug),
			Slug:      orgSlug,
			CreatedAt: time.Now().UTC(),
		}
		if err := ss.repo.CreateOrganization(org); err != nil {
			return nil, err
		}
		slog.Info("organization created", "slug", orgSlug, "id", org.ID)
	}

	actor := Actor{UserID: "seed", OrganizationID: org.ID, Role: models.RoleAdmin}
	result := &SeedResult{}
	for i, st := range file.Templates {
		req := st.request()
		if err := ss.validator.Validate(req); err != nil {
			return result, fmt.Errorf("template %d (%q): %w", i+1, st.Name, err)
		}

		t, err := ss.templates.Create(actor, req)
		if errors.Is(err, ErrTemplateAlreadyExists) {
			result.Skipped = append(result.Skipped, st.Name)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("template %q: %w", st.Name, err)
		}
		result.Created = append(result.Created, t.Name)
	}
	return result, nil
}
