package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/combat"
)

type participantSpecRequest struct {
	CharacterID *uuid.UUID `json:"character_id"`
	Name        string     `json:"name"`
	NPC         bool       `json:"npc"`
}

type startCombatRequest struct {
	Participants []participantSpecRequest `json:"participants"`
}

type participantResponse struct {
	ID          uuid.UUID  `json:"id"`
	CharacterID *uuid.UUID `json:"character_id,omitempty"`
	Name        string     `json:"name"`
	Initiative  int        `json:"initiative"`
	TurnOrder   int        `json:"turn_order"`
	IsNPC       bool       `json:"is_npc"`
}

type encounterResponse struct {
	ID               uuid.UUID             `json:"id"`
	CampaignID       uuid.UUID             `json:"campaign_id"`
	CurrentRound     int                   `json:"current_round"`
	CurrentTurnIndex int                   `json:"current_turn_index"`
	IsActive         bool                  `json:"is_active"`
	StartedAt        time.Time             `json:"started_at"`
	Participants     []participantResponse `json:"participants"`
	CurrentTurn      string                `json:"current_turn"`
}

func toEncounterResponse(e *combat.Encounter) encounterResponse {
	participants := make([]participantResponse, 0, len(e.Participants))
	for _, p := range e.Participants {
		participants = append(participants, participantResponse{
			ID:          p.ID,
			CharacterID: p.CharacterID,
			Name:        p.Name,
			Initiative:  p.Initiative,
			TurnOrder:   p.TurnOrder,
			IsNPC:       p.IsNPC,
		})
	}
	resp := encounterResponse{
		ID:               e.ID,
		CampaignID:       e.CampaignID,
		CurrentRound:     e.CurrentRound,
		CurrentTurnIndex: e.CurrentTurnIndex,
		IsActive:         e.IsActive,
		StartedAt:        e.StartedAt,
		Participants:     participants,
	}
	if len(e.Participants) > 0 {
		resp.CurrentTurn = e.CurrentParticipant().Name
	}
	return resp
}

// verifyDM parses the campaign path segment and checks that the caller runs
// the table. Writes the error response itself; callers stop on !ok.
func (a *API) verifyDM(w http.ResponseWriter, r *http.Request) (campaignID, userID uuid.UUID, ok bool) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return uuid.Nil, uuid.Nil, false
	}
	userID = UserID(r.Context())
	if _, err := a.campaigns.VerifyDM(r.Context(), campaignID, userID); err != nil {
		a.writeError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return campaignID, userID, true
}

func (a *API) handleStartCombat(w http.ResponseWriter, r *http.Request) {
	campaignID, userID, ok := a.verifyDM(w, r)
	if !ok {
		return
	}

	var req startCombatRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if len(req.Participants) == 0 {
		badRequest(w, "at least one participant is required")
		return
	}

	specs := make([]combat.ParticipantSpec, 0, len(req.Participants))
	for _, p := range req.Participants {
		if p.CharacterID == nil && p.Name == "" {
			badRequest(w, "each participant needs a character_id or a name")
			return
		}
		specs = append(specs, combat.ParticipantSpec{
			CharacterID: p.CharacterID,
			Name:        p.Name,
			NPC:         p.NPC,
		})
	}

	enc, err := a.coord.StartCombat(r.Context(), campaignID, userID, specs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEncounterResponse(enc))
}

func (a *API) handleGetCombat(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathUUID(r, "campaignID")
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}

	enc, err := a.encounters.GetByCampaign(r.Context(), campaignID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEncounterResponse(enc))
}

type turnStateResponse struct {
	Round       int    `json:"round"`
	TurnIndex   int    `json:"turn_index"`
	Participant string `json:"participant"`
}

func (a *API) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	campaignID, userID, ok := a.verifyDM(w, r)
	if !ok {
		return
	}

	state, err := a.coord.AdvanceTurn(r.Context(), campaignID, userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnStateResponse{
		Round:       state.Round,
		TurnIndex:   state.TurnIndex,
		Participant: state.Participant,
	})
}

func (a *API) handleEndCombat(w http.ResponseWriter, r *http.Request) {
	campaignID, userID, ok := a.verifyDM(w, r)
	if !ok {
		return
	}

	if err := a.coord.EndCombat(r.Context(), campaignID, userID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type forcedCheckRequest struct {
	CharacterID uuid.UUID `json:"character_id"`
	Ability     string    `json:"ability"`
	DC          int       `json:"dc"`
}

type forcedCheckResponse struct {
	CharacterID   uuid.UUID `json:"character_id"`
	CharacterName string    `json:"character_name"`
	Ability       string    `json:"ability"`
	Roll          int       `json:"roll"`
	Modifier      int       `json:"modifier"`
	Total         int       `json:"total"`
	DC            int       `json:"dc"`
	Success       bool      `json:"success"`
}

func (a *API) handleSavingThrow(w http.ResponseWriter, r *http.Request) {
	a.handleForcedCheck(w, r, combat.SavingThrow)
}

func (a *API) handleAbilityCheck(w http.ResponseWriter, r *http.Request) {
	a.handleForcedCheck(w, r, combat.AbilityCheck)
}

func (a *API) handleForcedCheck(w http.ResponseWriter, r *http.Request, kind combat.CheckKind) {
	campaignID, userID, ok := a.verifyDM(w, r)
	if !ok {
		return
	}

	var req forcedCheckRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.CharacterID == uuid.Nil {
		badRequest(w, "character_id is required")
		return
	}
	if req.DC < 1 {
		badRequest(w, "dc must be at least 1")
		return
	}

	ability, err := character.ParseAbility(req.Ability)
	if err != nil {
		a.writeError(w, err)
		return
	}

	result, err := a.coord.ForcedCheck(r.Context(), campaignID, userID, req.CharacterID, ability, req.DC, kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forcedCheckResponse{
		CharacterID:   result.CharacterID,
		CharacterName: result.CharacterName,
		Ability:       string(result.Ability),
		Roll:          result.Roll,
		Modifier:      result.Modifier,
		Total:         result.Total,
		DC:            result.DC,
		Success:       result.Success,
	})
}
