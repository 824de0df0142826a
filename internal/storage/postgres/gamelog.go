package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmorland/gametable/internal/game/event"
)

// GameLogRepository appends and lists game-log entries. It satisfies the
// combat coordinator's EventSink interface.
type GameLogRepository struct {
	db *pgxpool.Pool
}

// NewGameLogRepository creates a GameLogRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGameLogRepository(db *pgxpool.Pool) *GameLogRepository {
	return &GameLogRepository{db: db}
}

// Append stores one game-log entry. The log is append-only: there is no
// update or delete path.
//
// Precondition: entry.CampaignID must reference an existing campaign;
// entry.Type must be non-empty.
func (r *GameLogRepository) Append(ctx context.Context, entry event.Entry) error {
	data := entry.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding log data: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO game_logs (campaign_id, user_id, action_type, data)
		VALUES ($1, $2, $3, $4)`,
		entry.CampaignID, entry.UserID, entry.Type, payload,
	)
	if err != nil {
		return fmt.Errorf("appending game log: %w", err)
	}
	return nil
}

// ListRecent returns the most recent entries for a campaign, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns at most limit entries or a non-nil error.
func (r *GameLogRepository) ListRecent(ctx context.Context, campaignID uuid.UUID, limit int) ([]event.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, user_id, action_type, data, created_at
		FROM game_logs
		WHERE campaign_id = $1 ORDER BY created_at DESC LIMIT $2`,
		campaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing game log: %w", err)
	}
	defer rows.Close()

	entries := make([]event.Entry, 0)
	for rows.Next() {
		var e event.Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.UserID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning game log row: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Data); err != nil {
			return nil, fmt.Errorf("decoding log data: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
