// Package httpapi exposes the JSON HTTP surface of the game table server:
// account registration, dice rolling, character upkeep, and the DM's combat
// controls.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/auth"
	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/combat"
	"github.com/jmorland/gametable/internal/game/condition"
	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/game/event"
	"github.com/jmorland/gametable/internal/storage/postgres"
)

// UserStore is the account persistence surface the API needs.
type UserStore interface {
	Create(ctx context.Context, username, email, password, preferredLang string) (*postgres.User, error)
	Authenticate(ctx context.Context, username, password string) (*postgres.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*postgres.User, error)
}

// CampaignStore is the campaign persistence surface the API needs.
type CampaignStore interface {
	Create(ctx context.Context, name, description string, dmID uuid.UUID) (*postgres.Campaign, error)
	GetByID(ctx context.Context, id uuid.UUID) (*postgres.Campaign, error)
	VerifyDM(ctx context.Context, campaignID, userID uuid.UUID) (*postgres.Campaign, error)
}

// CharacterStore is the character persistence surface the API needs.
type CharacterStore interface {
	Create(ctx context.Context, c *character.Character) (*character.Character, error)
	GetByID(ctx context.Context, id uuid.UUID) (*character.Character, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*character.Character, error)
	AdjustStats(ctx context.Context, id uuid.UUID, adj postgres.StatAdjustments) (map[string]postgres.StatChange, error)
}

// ConditionStore is the condition persistence surface the API needs.
type ConditionStore interface {
	Apply(ctx context.Context, c *condition.Condition) (*condition.Condition, error)
	Remove(ctx context.Context, id uuid.UUID) error
	ListByCharacter(ctx context.Context, characterID uuid.UUID) ([]condition.Condition, error)
}

// GameLog is the append-and-list surface over the campaign game log.
type GameLog interface {
	Append(ctx context.Context, entry event.Entry) error
	ListRecent(ctx context.Context, campaignID uuid.UUID, limit int) ([]event.Entry, error)
}

// HealthChecker reports backing-store liveness.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// API aggregates every handler dependency. Construct it with NewAPI and
// mount Handler() on an http.Server.
type API struct {
	logger     *zap.Logger
	tokens     *auth.TokenManager
	users      UserStore
	campaigns  CampaignStore
	characters CharacterStore
	conditions ConditionStore
	gamelog    GameLog
	coord      *combat.Coordinator
	encounters combat.EncounterStore
	roller     *dice.Roller
	health     HealthChecker
}

// Deps carries the collaborators for NewAPI.
type Deps struct {
	Logger     *zap.Logger
	Tokens     *auth.TokenManager
	Users      UserStore
	Campaigns  CampaignStore
	Characters CharacterStore
	Conditions ConditionStore
	GameLog    GameLog
	Coord      *combat.Coordinator
	Encounters combat.EncounterStore
	Roller     *dice.Roller
	Health     HealthChecker
}

// NewAPI creates the API.
//
// Precondition: every field of deps except Health must be non-nil.
func NewAPI(deps Deps) *API {
	if deps.Logger == nil || deps.Tokens == nil || deps.Users == nil ||
		deps.Campaigns == nil || deps.Characters == nil || deps.Conditions == nil ||
		deps.GameLog == nil || deps.Coord == nil || deps.Encounters == nil ||
		deps.Roller == nil {
		panic("httpapi.NewAPI: missing dependency")
	}
	return &API{
		logger:     deps.Logger,
		tokens:     deps.Tokens,
		users:      deps.Users,
		campaigns:  deps.Campaigns,
		characters: deps.Characters,
		conditions: deps.Conditions,
		gamelog:    deps.GameLog,
		coord:      deps.Coord,
		encounters: deps.Encounters,
		roller:     deps.Roller,
		health:     deps.Health,
	}
}

// Handler returns the fully routed handler with request logging applied.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.Handle("GET /api/auth/me", a.authed(a.handleMe))

	mux.Handle("POST /api/dice/roll", a.authed(a.handleRoll))
	mux.Handle("GET /api/dice/quick/{notation}", a.authed(a.handleQuickRoll))

	mux.Handle("POST /api/campaigns", a.authed(a.handleCreateCampaign))
	mux.Handle("GET /api/campaigns/{campaignID}", a.authed(a.handleGetCampaign))
	mux.Handle("GET /api/campaigns/{campaignID}/log", a.authed(a.handleGameLog))

	mux.Handle("POST /api/campaigns/{campaignID}/characters", a.authed(a.handleCreateCharacter))
	mux.Handle("GET /api/campaigns/{campaignID}/characters", a.authed(a.handleListCharacters))
	mux.Handle("PATCH /api/characters/{characterID}/stats", a.authed(a.handleAdjustStats))

	mux.Handle("POST /api/characters/{characterID}/conditions", a.authed(a.handleApplyCondition))
	mux.Handle("GET /api/characters/{characterID}/conditions", a.authed(a.handleListConditions))
	mux.Handle("DELETE /api/characters/{characterID}/conditions/{conditionID}", a.authed(a.handleRemoveCondition))

	mux.Handle("POST /api/campaigns/{campaignID}/combat/start", a.authed(a.handleStartCombat))
	mux.Handle("GET /api/campaigns/{campaignID}/combat", a.authed(a.handleGetCombat))
	mux.Handle("POST /api/campaigns/{campaignID}/combat/next-turn", a.authed(a.handleNextTurn))
	mux.Handle("POST /api/campaigns/{campaignID}/combat/end", a.authed(a.handleEndCombat))
	mux.Handle("POST /api/campaigns/{campaignID}/checks/saving-throw", a.authed(a.handleSavingThrow))
	mux.Handle("POST /api/campaigns/{campaignID}/checks/ability-check", a.authed(a.handleAbilityCheck))

	return a.logRequests(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Health(r.Context(), 2*time.Second); err != nil {
			a.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}
