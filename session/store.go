package session

import (
	"checkquest/models"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a login lasts without signing in again
const DefaultTTL = 30 * 24 * time.Hour

// touchEvery throttles last_used_at writes
const touchEvery = 5 * time.Minute

// Repository is the persistence behind the store
type Repository interface {
	CreateSession(s *models.Session) error
	GetSession(sessionID string) (*models.Session, error)
	TouchSession(sessionID string) error
	DeleteSession(sessionID string) error
}

// Store keeps sessions in the database so they survive restarts.
// Expired rows are removed by the sync worker's housekeeping.
type Store struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewStore creates a database-backed session store
func NewStore(repo Repository, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		repo: repo,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a session for the user
func (s *Store) Create(user *models.User) (*models.Session, error) {
	now := s.now()
	sess := &models.Session{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		Name:           user.Name,
		Picture:        user.Picture,
		Role:           user.Role,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
		LastUsedAt:     now,
	}
	if err := s.repo.CreateSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns a live session with the user's current role, nil when
// missing or expired
func (s *Store) Get(sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := s.repo.GetSession(sessionID)
	if err != nil || sess == nil {
		return nil, err
	}

	if s.now().Sub(sess.LastUsedAt) >= touchEvery {
		if err := s.repo.TouchSession(sessionID); err != nil {
			slog.Warn("failed to touch session", "error", err)
		}
	}
	return sess, nil
}

// Delete ends a session
func (s *Store) Delete(sessionID string) error {
	return s.repo.DeleteSession(sessionID)
}
