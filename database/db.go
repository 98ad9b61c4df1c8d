package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connection pragmas go in the DSN so every pooled connection gets them.
	dsn := dbPath + "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			google_id TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL,
			name TEXT,
			picture TEXT,
			role TEXT NOT NULL DEFAULT 'operator',
			xp INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_checklist_date TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_used_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS checklist_templates (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			category TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_by TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE,
			UNIQUE(organization_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS template_sections (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			title TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (template_id) REFERENCES checklist_templates(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			section_id TEXT NOT NULL,
			text TEXT NOT NULL,
			weight INTEGER NOT NULL DEFAULT 1,
			critical INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			FOREIGN KEY (template_id) REFERENCES checklist_templates(id) ON DELETE CASCADE,
			FOREIGN KEY (section_id) REFERENCES template_sections(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS checklist_entries (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			location TEXT,
			status TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			points INTEGER NOT NULL DEFAULT 0,
			max_points INTEGER NOT NULL DEFAULT 0,
			critical_failure INTEGER NOT NULL DEFAULT 0,
			xp_earned INTEGER NOT NULL DEFAULT 0,
			client_mutation_id TEXT,
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			FOREIGN KEY (template_id) REFERENCES checklist_templates(id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			entry_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			answer TEXT NOT NULL,
			comment TEXT,
			photo_url TEXT,
			FOREIGN KEY (entry_id) REFERENCES checklist_entries(id) ON DELETE CASCADE,
			UNIQUE(entry_id, question_id)
		)`,

		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			template_id TEXT NOT NULL,
			assignee_id TEXT NOT NULL,
			cron TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			active INTEGER NOT NULL DEFAULT 1,
			last_notified_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (template_id) REFERENCES checklist_templates(id) ON DELETE CASCADE,
			FOREIGN KEY (assignee_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS action_plans (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			entry_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			responsible_id TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			due_date DATETIME NOT NULL,
			notion_page_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			FOREIGN KEY (entry_id) REFERENCES checklist_entries(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS gamification_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			entry_id TEXT,
			kind TEXT NOT NULL,
			xp INTEGER NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id TEXT NOT NULL,
			badge_code TEXT NOT NULL,
			awarded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, badge_code),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			event TEXT NOT NULL,
			target TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			sync_pending INTEGER NOT NULL DEFAULT 1,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			sync_retry_count INTEGER NOT NULL DEFAULT 0,
			sync_last_attempt_at DATETIME,
			sync_error TEXT,
			external_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			synced_at DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS processed_mutations (
			user_id TEXT NOT NULL,
			mutation_id TEXT NOT NULL,
			resource_id TEXT,
			processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, mutation_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			url TEXT,
			tag TEXT,
			read_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_org ON checklist_templates(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_template ON questions(template_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_org_completed ON checklist_entries(organization_id, completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_user ON checklist_entries(user_id, completed_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_mutation ON checklist_entries(user_id, client_mutation_id) WHERE client_mutation_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_action_plans_org_status ON action_plans(organization_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_action_plans_responsible ON action_plans(responsible_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gamification_user_created ON gamification_logs(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(sync_pending) WHERE sync_pending = 1`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// now is the single clock for persisted timestamps. Stored times are UTC so
// that lexical comparisons in SQL stay ordered.
func now() time.Time {
	return time.Now().UTC()
}
