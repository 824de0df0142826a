package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmorland/gametable/internal/game/combat"
)

// EncounterRepository persists encounters and their participants. It
// satisfies the combat coordinator's EncounterStore interface.
//
// The one-encounter-per-campaign invariant is enforced by the unique
// constraint on encounters.campaign_id, making the existence check and the
// insert a single atomic step.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given
// pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Create persists enc and all its participants in one transaction.
//
// Postcondition: Either the encounter and every participant are stored, or
// nothing is; returns combat.ErrCombatAlreadyActive when the campaign
// already has an encounter.
func (r *EncounterRepository) Create(ctx context.Context, enc *combat.Encounter) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO encounters (id, campaign_id, current_round, current_turn_index, is_active)
		VALUES ($1, $2, $3, $4, $5)`,
		enc.ID, enc.CampaignID, enc.CurrentRound, enc.CurrentTurnIndex, enc.IsActive,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return combat.ErrCombatAlreadyActive
		}
		return fmt.Errorf("inserting encounter: %w", err)
	}

	for _, p := range enc.Participants {
		_, err = tx.Exec(ctx, `
			INSERT INTO encounter_participants
				(id, encounter_id, character_id, name, initiative, turn_order, is_npc)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, enc.ID, p.CharacterID, p.Name, p.Initiative, p.TurnOrder, p.IsNPC,
		)
		if err != nil {
			return fmt.Errorf("inserting participant %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing encounter: %w", err)
	}
	return nil
}

// GetByCampaign returns the campaign's encounter with participants ordered
// by turn order.
//
// Postcondition: Returns the encounter or combat.ErrNoActiveCombat.
func (r *EncounterRepository) GetByCampaign(ctx context.Context, campaignID uuid.UUID) (*combat.Encounter, error) {
	var enc combat.Encounter
	err := r.db.QueryRow(ctx, `
		SELECT id, campaign_id, current_round, current_turn_index, is_active, started_at
		FROM encounters WHERE campaign_id = $1`,
		campaignID,
	).Scan(&enc.ID, &enc.CampaignID, &enc.CurrentRound, &enc.CurrentTurnIndex, &enc.IsActive, &enc.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, combat.ErrNoActiveCombat
	}
	if err != nil {
		return nil, fmt.Errorf("querying encounter: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, encounter_id, character_id, name, initiative, turn_order, is_npc
		FROM encounter_participants
		WHERE encounter_id = $1 ORDER BY turn_order ASC`,
		enc.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p combat.Participant
		if err := rows.Scan(&p.ID, &p.EncounterID, &p.CharacterID, &p.Name,
			&p.Initiative, &p.TurnOrder, &p.IsNPC); err != nil {
			return nil, fmt.Errorf("scanning participant row: %w", err)
		}
		enc.Participants = append(enc.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &enc, nil
}

// UpdateTurn persists a new round and turn index for the encounter.
//
// Postcondition: Returns combat.ErrNoActiveCombat when the encounter no
// longer exists.
func (r *EncounterRepository) UpdateTurn(ctx context.Context, encounterID uuid.UUID, round, turnIndex int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE encounters SET current_round = $2, current_turn_index = $3
		WHERE id = $1`,
		encounterID, round, turnIndex,
	)
	if err != nil {
		return fmt.Errorf("updating turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return combat.ErrNoActiveCombat
	}
	return nil
}

// Delete removes the encounter and all its participants in one transaction.
//
// Postcondition: Returns combat.ErrNoActiveCombat when the encounter no
// longer exists; participants never outlive their encounter.
func (r *EncounterRepository) Delete(ctx context.Context, encounterID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM encounter_participants WHERE encounter_id = $1`, encounterID); err != nil {
		return fmt.Errorf("deleting participants: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM encounters WHERE id = $1`, encounterID)
	if err != nil {
		return fmt.Errorf("deleting encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return combat.ErrNoActiveCombat
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing teardown: %w", err)
	}
	return nil
}
