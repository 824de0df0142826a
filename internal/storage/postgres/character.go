package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmorland/gametable/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no
// results. It aliases character.ErrNotFound so domain-level callers can
// match it without importing this package.
var ErrCharacterNotFound = character.ErrNotFound

// CharacterRepository provides character persistence operations. It
// satisfies the combat coordinator's CharacterLookup interface.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given
// pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character sheet and returns it with ID and timestamps
// set.
//
// Precondition: c.UserID and c.CampaignID must reference existing rows;
// c.Name must be non-empty.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	scores, err := json.Marshal(scoresOrDefault(c.Abilities))
	if err != nil {
		return nil, fmt.Errorf("encoding ability scores: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(user_id, campaign_id, name, level, ability_scores,
			 hp_current, hp_max, hp_temp, ac)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, user_id, campaign_id, name, level, ability_scores,
		          hp_current, hp_max, hp_temp, ac, created_at, updated_at`,
		c.UserID, c.CampaignID, c.Name, c.Level, scores,
		c.HPCurrent, c.HPMax, c.HPTemp, c.AC,
	)
	out, err := scanCharacter(row)
	if err != nil {
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by primary key.
//
// Postcondition: Returns the character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, campaign_id, name, level, ability_scores,
		       hp_current, hp_max, hp_temp, ac, created_at, updated_at
		FROM characters WHERE id = $1`,
		id,
	)
	c, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// ListByCampaign returns all characters in the given campaign, ordered by
// creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, campaign_id, name, level, ability_scores,
		       hp_current, hp_max, hp_temp, ac, created_at, updated_at
		FROM characters WHERE campaign_id = $1 ORDER BY created_at ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// StatAdjustments holds the optional DM-side overrides for a character's
// combat stats. Nil fields are left unchanged.
type StatAdjustments struct {
	HPCurrent *int
	HPMax     *int
	HPTemp    *int
	AC        *int
}

// StatChange records one applied adjustment.
type StatChange struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// AdjustStats applies the non-nil adjustments to the character and returns
// the old-to-new change set, keyed by field name.
//
// Postcondition: Returns the change map (empty when adj has no set fields)
// or ErrCharacterNotFound.
func (r *CharacterRepository) AdjustStats(ctx context.Context, id uuid.UUID, adj StatAdjustments) (map[string]StatChange, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]StatChange)
	apply := func(field string, target *int, value *int) {
		if value != nil && *value != *target {
			changes[field] = StatChange{Old: *target, New: *value}
			*target = *value
		}
	}
	apply("hp_current", &c.HPCurrent, adj.HPCurrent)
	apply("hp_max", &c.HPMax, adj.HPMax)
	apply("hp_temp", &c.HPTemp, adj.HPTemp)
	apply("ac", &c.AC, adj.AC)

	if len(changes) == 0 {
		return changes, nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET hp_current = $2, hp_max = $3, hp_temp = $4, ac = $5, updated_at = NOW()
		WHERE id = $1`,
		id, c.HPCurrent, c.HPMax, c.HPTemp, c.AC,
	)
	if err != nil {
		return nil, fmt.Errorf("updating character stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrCharacterNotFound
	}
	return changes, nil
}

func scoresOrDefault(scores character.AbilityScores) character.AbilityScores {
	if len(scores) == 0 {
		return character.DefaultAbilityScores()
	}
	return scores
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	var scores []byte
	err := row.Scan(
		&c.ID, &c.UserID, &c.CampaignID, &c.Name, &c.Level, &scores,
		&c.HPCurrent, &c.HPMax, &c.HPTemp, &c.AC, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &c.Abilities); err != nil {
		return nil, fmt.Errorf("decoding ability scores: %w", err)
	}
	return &c, nil
}
