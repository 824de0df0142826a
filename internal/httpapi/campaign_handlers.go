package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/event"
	"github.com/jmorland/gametable/internal/storage/postgres"
)

type createCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type campaignResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DMID        uuid.UUID `json:"dm_id"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCampaignResponse(c *postgres.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		DMID:        c.DMID,
		InviteCode:  c.InviteCode,
		CreatedAt:   c.CreatedAt,
	}
}

func (a *API) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	c, err := a.campaigns.Create(r.Context(), req.Name, req.Description, UserID(r.Context()))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(c))
}

func (a *API) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}

	c, err := a.campaigns.GetByID(r.Context(), campaignID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(c))
}

type createCharacterRequest struct {
	Name      string         `json:"name"`
	Level     int            `json:"level"`
	Abilities map[string]int `json:"abilities"`
	HPCurrent int            `json:"hp_current"`
	HPMax     int            `json:"hp_max"`
	HPTemp    int            `json:"hp_temp"`
	AC        int            `json:"ac"`
}

type characterResponse struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	CampaignID uuid.UUID      `json:"campaign_id"`
	Name       string         `json:"name"`
	Level      int            `json:"level"`
	Abilities  map[string]int `json:"abilities"`
	HPCurrent  int            `json:"hp_current"`
	HPMax      int            `json:"hp_max"`
	HPTemp     int            `json:"hp_temp"`
	AC         int            `json:"ac"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toCharacterResponse(c *character.Character) characterResponse {
	abilities := make(map[string]int, len(c.Abilities))
	for a, score := range c.Abilities {
		abilities[string(a)] = score
	}
	return characterResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		CampaignID: c.CampaignID,
		Name:       c.Name,
		Level:      c.Level,
		Abilities:  abilities,
		HPCurrent:  c.HPCurrent,
		HPMax:      c.HPMax,
		HPTemp:     c.HPTemp,
		AC:         c.AC,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (a *API) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}

	var req createCharacterRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if req.Level < 1 {
		req.Level = 1
	}

	scores := make(character.AbilityScores, len(req.Abilities))
	for key, score := range req.Abilities {
		ability, err := character.ParseAbility(key)
		if err != nil {
			a.writeError(w, err)
			return
		}
		scores[ability] = score
	}

	// Membership is invite-code based and not tracked per user, so any
	// authenticated user may add a character to a campaign they can name.
	if _, err := a.campaigns.GetByID(r.Context(), campaignID); err != nil {
		a.writeError(w, err)
		return
	}

	created, err := a.characters.Create(r.Context(), &character.Character{
		UserID:     UserID(r.Context()),
		CampaignID: campaignID,
		Name:       req.Name,
		Level:      req.Level,
		Abilities:  scores,
		HPCurrent:  req.HPCurrent,
		HPMax:      req.HPMax,
		HPTemp:     req.HPTemp,
		AC:         req.AC,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCharacterResponse(created))
}

func (a *API) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}

	chars, err := a.characters.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	out := make([]characterResponse, 0, len(chars))
	for _, c := range chars {
		out = append(out, toCharacterResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type adjustStatsRequest struct {
	HPCurrent *int `json:"hp_current"`
	HPMax     *int `json:"hp_max"`
	HPTemp    *int `json:"hp_temp"`
	AC        *int `json:"ac"`
}

type adjustStatsResponse struct {
	CharacterID uuid.UUID                      `json:"character_id"`
	Changes     map[string]postgres.StatChange `json:"changes"`
}

func (a *API) handleAdjustStats(w http.ResponseWriter, r *http.Request) {
	characterID, err := pathUUID(r, "characterID")
	if err != nil {
		badRequest(w, "invalid character id")
		return
	}

	var req adjustStatsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	ch, err := a.characters.GetByID(r.Context(), characterID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	userID := UserID(r.Context())
	if _, err := a.campaigns.VerifyDM(r.Context(), ch.CampaignID, userID); err != nil {
		a.writeError(w, err)
		return
	}

	changes, err := a.characters.AdjustStats(r.Context(), characterID, postgres.StatAdjustments{
		HPCurrent: req.HPCurrent,
		HPMax:     req.HPMax,
		HPTemp:    req.HPTemp,
		AC:        req.AC,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}

	if len(changes) > 0 {
		data := map[string]any{"character_id": characterID.String(), "character_name": ch.Name}
		for field, change := range changes {
			data[field] = map[string]any{"old": change.Old, "new": change.New}
		}
		if err := a.gamelog.Append(r.Context(), event.Entry{
			CampaignID: ch.CampaignID,
			UserID:     &userID,
			Type:       event.TypeCharacterUpdate,
			Data:       data,
		}); err != nil {
			a.logger.Warn("recording stat change failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, adjustStatsResponse{CharacterID: characterID, Changes: changes})
}

type gameLogEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func (a *API) handleGameLog(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			badRequest(w, "limit must be between 1 and 500")
			return
		}
	}

	entries, err := a.gamelog.ListRecent(r.Context(), campaignID, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}

	out := make([]gameLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, gameLogEntryResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Type:      e.Type,
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
