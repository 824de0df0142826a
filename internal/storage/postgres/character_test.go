package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/storage/postgres"
)

func makeTestCharacter(userID, campaignID uuid.UUID, name string) *character.Character {
	return &character.Character{
		UserID:     userID,
		CampaignID: campaignID,
		Name:       name,
		Level:      3,
		Abilities: character.AbilityScores{
			character.Strength: 14, character.Dexterity: 16,
			character.Constitution: 12, character.Intelligence: 10,
			character.Wisdom: 8, character.Charisma: 13,
		},
		HPCurrent: 24,
		HPMax:     24,
		AC:        15,
	}
}

func TestCharacterRepository_Create(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Zara"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, dm.ID, created.UserID)
	assert.Equal(t, campaign.ID, created.CampaignID)
	assert.Equal(t, "Zara", created.Name)
	assert.Equal(t, 3, created.Level)
	assert.Equal(t, 16, created.Abilities.Score(character.Dexterity))
	assert.Equal(t, 24, created.HPMax)
	assert.Equal(t, 15, created.AC)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCharacterRepository_Create_DefaultScores(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, &character.Character{
		UserID: dm.ID, CampaignID: campaign.ID, Name: "Blank", Level: 1,
		HPCurrent: 8, HPMax: 8, AC: 10,
	})
	require.NoError(t, err)

	for _, a := range character.Abilities {
		assert.Equal(t, 10, created.Abilities.Score(a), "ability %s should default to 10", a)
	}
}

func TestCharacterRepository_GetByID(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Zara"))
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Zara", fetched.Name)
	assert.Equal(t, created.Abilities, fetched.Abilities)
}

func TestCharacterRepository_GetByID_NotFound(t *testing.T) {
	pool, _, _ := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_ListByCampaign(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Alpha"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Beta"))
	require.NoError(t, err)

	chars, err := repo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, "Alpha", chars[0].Name, "list should be ordered by creation time")
	assert.Equal(t, "Beta", chars[1].Name)
}

func TestCharacterRepository_ListByCampaign_Empty(t *testing.T) {
	pool, _, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)

	chars, err := repo.ListByCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.NotNil(t, chars)
	assert.Empty(t, chars)
}

func TestCharacterRepository_AdjustStats(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Zara"))
	require.NoError(t, err)

	hp := 12
	ac := 17
	changes, err := repo.AdjustStats(ctx, created.ID, postgres.StatAdjustments{
		HPCurrent: &hp,
		AC:        &ac,
	})
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, postgres.StatChange{Old: 24, New: 12}, changes["hp_current"])
	assert.Equal(t, postgres.StatChange{Old: 15, New: 17}, changes["ac"])

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, fetched.HPCurrent)
	assert.Equal(t, 17, fetched.AC)
	assert.Equal(t, 24, fetched.HPMax, "unset fields must stay unchanged")
}

func TestCharacterRepository_AdjustStats_NoChanges(t *testing.T) {
	pool, dm, campaign := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCharacter(dm.ID, campaign.ID, "Zara"))
	require.NoError(t, err)

	same := created.HPCurrent
	changes, err := repo.AdjustStats(ctx, created.ID, postgres.StatAdjustments{HPCurrent: &same})
	require.NoError(t, err)
	assert.Empty(t, changes, "setting a stat to its current value is not a change")
}

func TestCharacterRepository_AdjustStats_NotFound(t *testing.T) {
	pool, _, _ := setupCampaign(t)
	repo := postgres.NewCharacterRepository(pool)

	hp := 5
	_, err := repo.AdjustStats(context.Background(), uuid.New(), postgres.StatAdjustments{HPCurrent: &hp})
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}
