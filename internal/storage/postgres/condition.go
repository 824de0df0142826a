package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmorland/gametable/internal/game/condition"
)

// ErrConditionNotFound is returned when a condition lookup yields no
// results.
var ErrConditionNotFound = errors.New("condition not found")

// ConditionRepository persists active conditions on characters.
type ConditionRepository struct {
	db *pgxpool.Pool
}

// NewConditionRepository creates a ConditionRepository backed by the given
// pool.
//
// Precondition: db must be a valid, open connection pool.
func NewConditionRepository(db *pgxpool.Pool) *ConditionRepository {
	return &ConditionRepository{db: db}
}

// Apply records a condition on a character.
//
// Precondition: c.CharacterID must reference an existing character; c.Type
// must come from condition.ParseType.
func (r *ConditionRepository) Apply(ctx context.Context, c *condition.Condition) (*condition.Condition, error) {
	var out condition.Condition
	err := r.db.QueryRow(ctx, `
		INSERT INTO character_conditions (character_id, condition_type, duration_rounds, source)
		VALUES ($1, $2, $3, $4)
		RETURNING id, character_id, condition_type, duration_rounds, source, created_at`,
		c.CharacterID, c.Type, c.DurationRounds, c.Source,
	).Scan(&out.ID, &out.CharacterID, &out.Type, &out.DurationRounds, &out.Source, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting condition: %w", err)
	}
	return &out, nil
}

// Remove deletes a condition by primary key.
//
// Postcondition: Returns ErrConditionNotFound when no row was deleted.
func (r *ConditionRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM character_conditions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting condition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionNotFound
	}
	return nil
}

// ListByCharacter returns all active conditions on a character, oldest
// first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ConditionRepository) ListByCharacter(ctx context.Context, characterID uuid.UUID) ([]condition.Condition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, character_id, condition_type, duration_rounds, source, created_at
		FROM character_conditions
		WHERE character_id = $1 ORDER BY created_at ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conditions: %w", err)
	}
	defer rows.Close()

	conditions := make([]condition.Condition, 0)
	for rows.Next() {
		var c condition.Condition
		if err := rows.Scan(&c.ID, &c.CharacterID, &c.Type, &c.DurationRounds, &c.Source, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning condition row: %w", err)
		}
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}
