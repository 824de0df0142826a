package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/jmorland/gametable/internal/storage/postgres"
	"github.com/jmorland/gametable/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// setupUser starts a migrated database and registers one user.
func setupUser(t *testing.T) (*pgxpool.Pool, *postgres.User) {
	t.Helper()
	pool := testutil.NewPool(t)
	name := uniqueName("user")
	u, err := postgres.NewUserRepository(pool).Create(
		context.Background(), name, name+"@example.com", "password123", "")
	require.NoError(t, err)
	return pool, u
}

// setupCampaign builds on setupUser and creates a campaign owned by that
// user.
func setupCampaign(t *testing.T) (*pgxpool.Pool, *postgres.User, *postgres.Campaign) {
	t.Helper()
	pool, dm := setupUser(t)
	c, err := postgres.NewCampaignRepository(pool).Create(
		context.Background(), uniqueName("campaign"), "a test table", dm.ID)
	require.NoError(t, err)
	return pool, dm, c
}
