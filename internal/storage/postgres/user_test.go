package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jmorland/gametable/internal/storage/postgres"
	"github.com/jmorland/gametable/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	name := uniqueName("user")
	u, err := repo.Create(ctx, name, name+"@example.com", "password123", "")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, name, u.Username)
	assert.Equal(t, name+"@example.com", u.Email)
	assert.Equal(t, "en", u.PreferredLang, "empty language should default to en")
	assert.NotEqual(t, "password123", u.PasswordHash, "password must be stored hashed")
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	name := uniqueName("user")
	_, err := repo.Create(ctx, name, name+"@a.com", "pass1", "en")
	require.NoError(t, err)

	_, err = repo.Create(ctx, name, name+"@b.com", "pass2", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrUserExists)
}

func TestUserRepository_Authenticate(t *testing.T) {
	pool, u := setupUser(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	got, err := repo.Authenticate(ctx, u.Username, "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestUserRepository_Authenticate_WrongPassword(t *testing.T) {
	pool, u := setupUser(t)
	repo := postgres.NewUserRepository(pool)

	_, err := repo.Authenticate(context.Background(), u.Username, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)
}

func TestUserRepository_Authenticate_UnknownUser(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewUserRepository(pool)

	// Unknown usernames and wrong passwords must be indistinguishable.
	_, err := repo.Authenticate(context.Background(), uniqueName("ghost"), "whatever")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewUserRepository(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrUserNotFound)
}

// Property: any registered user can authenticate with the password used at
// registration, and never with a different one.
func TestUserRepository_Property_RegisterThenAuthenticate(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		password := rapid.StringMatching(`[a-zA-Z0-9!@#$%]{6,32}`).Draw(rt, "password")
		name := uniqueName("user")

		created, err := repo.Create(ctx, name, name+"@example.com", password, "en")
		require.NoError(t, err)

		got, err := repo.Authenticate(ctx, name, password)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = repo.Authenticate(ctx, name, password+"x")
		assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)
	})
}
