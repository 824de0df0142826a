package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/game/condition"
	"github.com/jmorland/gametable/internal/game/event"
)

type applyConditionRequest struct {
	Type           string `json:"type"`
	DurationRounds *int   `json:"duration_rounds"`
	Source         string `json:"source"`
}

type conditionResponse struct {
	ID             uuid.UUID `json:"id"`
	CharacterID    uuid.UUID `json:"character_id"`
	Type           string    `json:"type"`
	DurationRounds *int      `json:"duration_rounds,omitempty"`
	Source         string    `json:"source,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toConditionResponse(c *condition.Condition) conditionResponse {
	return conditionResponse{
		ID:             c.ID,
		CharacterID:    c.CharacterID,
		Type:           c.Type,
		DurationRounds: c.DurationRounds,
		Source:         c.Source,
		CreatedAt:      c.CreatedAt,
	}
}

func (a *API) handleApplyCondition(w http.ResponseWriter, r *http.Request) {
	characterID, err := pathUUID(r, "characterID")
	if err != nil {
		badRequest(w, "invalid character id")
		return
	}

	var req applyConditionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	condType, err := condition.ParseType(req.Type)
	if err != nil {
		a.writeError(w, err)
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

	applied, err := a.conditions.Apply(r.Context(), &condition.Condition{
		CharacterID:    characterID,
		Type:           condType,
		DurationRounds: req.DurationRounds,
		Source:         req.Source,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.appendConditionEvent(r, event.TypeConditionApplied, ch.CampaignID, userID, ch.Name, applied)
	writeJSON(w, http.StatusCreated, toConditionResponse(applied))
}

func (a *API) handleListConditions(w http.ResponseWriter, r *http.Request) {
	characterID, err := pathUUID(r, "characterID")
	if err != nil {
		badRequest(w, "invalid character id")
		return
	}

	conditions, err := a.conditions.ListByCharacter(r.Context(), characterID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	out := make([]conditionResponse, 0, len(conditions))
	for i := range conditions {
		out = append(out, toConditionResponse(&conditions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	characterID, err := pathUUID(r, "characterID")
	if err != nil {
		badRequest(w, "invalid character id")
		return
	}
	conditionID, err := pathUUID(r, "conditionID")
	if err != nil {
		badRequest(w, "invalid condition id")
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

	// Resolve the condition before deleting so the log entry can name it.
	var removed *condition.Condition
	if listed, err := a.conditions.ListByCharacter(r.Context(), characterID); err == nil {
		for i := range listed {
			if listed[i].ID == conditionID {
				removed = &listed[i]
				break
			}
		}
	}

	if err := a.conditions.Remove(r.Context(), conditionID); err != nil {
		a.writeError(w, err)
		return
	}

	if removed != nil {
		a.appendConditionEvent(r, event.TypeConditionRemoved, ch.CampaignID, userID, ch.Name, removed)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) appendConditionEvent(r *http.Request, eventType string, campaignID, userID uuid.UUID, characterName string, c *condition.Condition) {
	if err := a.gamelog.Append(r.Context(), event.Entry{
		CampaignID: campaignID,
		UserID:     &userID,
		Type:       eventType,
		Data: map[string]any{
			"character_id":   c.CharacterID.String(),
			"character_name": characterName,
			"condition":      c.Type,
		},
	}); err != nil {
		a.logger.Warn("recording condition change failed", zap.Error(err))
	}
}
