package session

import (
	"checkquest/database"
	"checkquest/models"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *database.Repository, *models.User) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	repo := database.NewRepository(db)
	org := &models.Organization{ID: "org-1", Name: "Bistro", Slug: "bistro"}
	require.NoError(t, repo.CreateOrganization(org))
	user := &models.User{ID: "user-1", OrganizationID: "org-1", GoogleID: "g-1", Email: "ana@example.com", Name: "Ana", Role: models.RoleOperator}
	require.NoError(t, repo.UpsertUser(user))

	return NewStore(repo, time.Hour), repo, user
}

func TestStore_Lifecycle(t *testing.T) {
	store, repo, user := setupStore(t)

	sess, err := store.Create(user)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "org-1", sess.OrganizationID)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, models.RoleOperator, got.Role)

	// Role changes show up on the next request
	require.NoError(t, repo.UpdateUserRole("user-1", models.RoleManager))
	got, err = store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, got.Role)

	require.NoError(t, store.Delete(sess.ID))
	got, err = store.Get(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Expiry(t *testing.T) {
	store, repo, user := setupStore(t)
	store.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	sess, err := store.Create(user)
	require.NoError(t, err)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err := repo.DeleteExpiredSessions(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestStore_UnknownSession(t *testing.T) {
	store, _, _ := setupStore(t)

	got, err := store.Get("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get("nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
