package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCampaignNotFound is returned when a campaign lookup yields no results.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrNotCampaignDM is returned when a user other than the campaign's DM
// attempts a DM-only action.
var ErrNotCampaignDM = errors.New("only the campaign DM can perform this action")

// Campaign represents a game world owned by a DM.
type Campaign struct {
	ID          uuid.UUID
	Name        string
	Description string
	DMID        uuid.UUID
	InviteCode  string
	CreatedAt   time.Time
}

// CampaignRepository provides campaign persistence operations.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a CampaignRepository backed by the given
// pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign owned by dmID with a random invite code.
//
// Precondition: name must be non-empty; dmID must reference an existing user.
func (r *CampaignRepository) Create(ctx context.Context, name, description string, dmID uuid.UUID) (*Campaign, error) {
	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	var c Campaign
	err = r.db.QueryRow(ctx, `
		INSERT INTO campaigns (name, description, dm_id, invite_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, dm_id, invite_code, created_at`,
		name, description, dmID, code,
	).Scan(&c.ID, &c.Name, &c.Description, &c.DMID, &c.InviteCode, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting campaign: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a campaign by primary key.
//
// Postcondition: Returns the campaign or ErrCampaignNotFound.
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	var c Campaign
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, dm_id, invite_code, created_at
		 FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.DMID, &c.InviteCode, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying campaign: %w", err)
	}
	return &c, nil
}

// VerifyDM confirms that userID is the DM of campaignID.
//
// Postcondition: Returns the campaign when userID is its DM,
// ErrCampaignNotFound for unknown campaigns, or ErrNotCampaignDM otherwise.
func (r *CampaignRepository) VerifyDM(ctx context.Context, campaignID, userID uuid.UUID) (*Campaign, error) {
	c, err := r.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.DMID != userID {
		return nil, ErrNotCampaignDM
	}
	return c, nil
}

// newInviteCode returns a random 12-character hex invite code.
func newInviteCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating invite code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
