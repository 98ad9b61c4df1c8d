package database

import (
	"checkquest/models"
	"database/sql"
	"errors"
)

// ErrTemplateInUse is returned when deleting a template that has entries.
var ErrTemplateInUse = errors.New("template has checklist entries")

// ==================== TEMPLATE OPERATIONS ====================

// CreateTemplate inserts a template with its sections and questions in one transaction
func (r *Repository) CreateTemplate(t *models.ChecklistTemplate) error {
	return r.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO checklist_templates (id, organization_id, name, description, category,
				active, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			t.ID, t.OrganizationID, t.Name, t.Description, t.Category,
			boolToInt(t.Active), t.CreatedBy, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}

		for _, section := range t.Sections {
			if _, err := tx.Exec(`
				INSERT INTO template_sections (id, template_id, title, position) VALUES (?, ?, ?, ?)
			`, section.ID, t.ID, section.Title, section.Position); err != nil {
				return err
			}

			for _, q := range section.Questions {
				if _, err := tx.Exec(`
					INSERT INTO questions (id, template_id, section_id, text, weight, critical, position)
					VALUES (?, ?, ?, ?, ?, ?, ?)
				`, q.ID, t.ID, section.ID, q.Text, q.Weight, boolToInt(q.Critical), q.Position); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

const templateColumns = `t.id, t.organization_id, t.name, COALESCE(t.description, ''), COALESCE(t.category, ''),
	t.active, COALESCE(t.created_by, ''), t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM questions q WHERE q.template_id = t.id)`

func scanTemplate(row rowScanner) (*models.ChecklistTemplate, error) {
	var t models.ChecklistTemplate
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.Category,
		&t.Active, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.QuestionCount,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate loads a template with its full section/question tree, nil when missing
func (r *Repository) GetTemplate(templateID string) (*models.ChecklistTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(`
		SELECT `+templateColumns+` FROM checklist_templates t WHERE t.id = ?
	`, templateID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sections, err := r.loadSections(templateID)
	if err != nil {
		return nil, err
	}
	t.Sections = sections
	return t, nil
}

func (r *Repository) loadSections(templateID string) ([]models.TemplateSection, error) {
	rows, err := r.db.Query(`
		SELECT id, template_id, title, position
		FROM template_sections
		WHERE template_id = ?
		ORDER BY position ASC
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.TemplateSection
	index := make(map[string]int)
	for rows.Next() {
		var s models.TemplateSection
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.Title, &s.Position); err != nil {
			return nil, err
		}
		s.Questions = make([]models.Question, 0)
		index[s.ID] = len(sections)
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	qrows, err := r.db.Query(`
		SELECT id, template_id, section_id, text, weight, critical, position
		FROM questions
		WHERE template_id = ?
		ORDER BY position ASC
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer qrows.Close()

	for qrows.Next() {
		var q models.Question
		if err := qrows.Scan(&q.ID, &q.TemplateID, &q.SectionID, &q.Text, &q.Weight, &q.Critical, &q.Position); err != nil {
			return nil, err
		}
		if i, ok := index[q.SectionID]; ok {
			sections[i].Questions = append(sections[i].Questions, q)
		}
	}
	return sections, qrows.Err()
}

// ListTemplates returns an organization's templates without their question tree
func (r *Repository) ListTemplates(organizationID string, activeOnly bool) ([]models.ChecklistTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM checklist_templates t WHERE t.organization_id = ?`
	if activeOnly {
		query += ` AND t.active = 1`
	}
	query += ` ORDER BY t.name ASC`

	rows, err := r.db.Query(query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Initialize with empty slice to avoid returning nil
	templates := make([]models.ChecklistTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// GetTemplateByName returns nil when the organization has no template with that name
func (r *Repository) GetTemplateByName(organizationID, name string) (*models.ChecklistTemplate, error) {
	t, err := scanTemplate(r.db.QueryRow(`
		SELECT `+templateColumns+` FROM checklist_templates t
		WHERE t.organization_id = ? AND t.name = ?
	`, organizationID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// UpdateTemplate updates the template header fields
func (r *Repository) UpdateTemplate(t *models.ChecklistTemplate) error {
	res, err := r.db.Exec(`
		UPDATE checklist_templates SET
			name = ?,
			description = ?,
			category = ?,
			active = ?,
			updated_at = ?
		WHERE id = ?
	`, t.Name, t.Description, t.Category, boolToInt(t.Active), now(), t.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteTemplate removes a template that was never executed
func (r *Repository) DeleteTemplate(templateID string) error {
	return r.withTx(func(tx *sql.Tx) error {
		var entries int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM checklist_entries WHERE template_id = ?`, templateID).Scan(&entries); err != nil {
			return err
		}
		if entries > 0 {
			return ErrTemplateInUse
		}

		res, err := tx.Exec(`DELETE FROM checklist_templates WHERE id = ?`, templateID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}
