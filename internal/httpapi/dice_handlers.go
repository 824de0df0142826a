package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/game/event"
)

type rollRequest struct {
	Notation     string `json:"notation"`
	Advantage    bool   `json:"advantage"`
	Disadvantage bool   `json:"disadvantage"`
	// Label is a free-form description of what the roll was for.
	Label string `json:"label"`
	// CampaignID, when set, records the roll in that campaign's game log.
	CampaignID *uuid.UUID `json:"campaign_id"`
}

type rollResponse struct {
	Notation      string `json:"notation"`
	Rolls         []int  `json:"rolls"`
	Selected      []int  `json:"selected"`
	Modifier      int    `json:"modifier"`
	Total         int    `json:"total"`
	Advantage     bool   `json:"advantage"`
	Disadvantage  bool   `json:"disadvantage"`
	AdvantagePair []int  `json:"advantage_pair,omitempty"`
	Label         string `json:"label,omitempty"`
}

func toRollResponse(o dice.RollOutcome) rollResponse {
	return rollResponse{
		Notation:      o.Notation,
		Rolls:         o.Rolls,
		Selected:      o.Selected,
		Modifier:      o.Modifier,
		Total:         o.Total,
		Advantage:     o.Advantage,
		Disadvantage:  o.Disadvantage,
		AdvantagePair: o.AdvantagePair,
	}
}

func (a *API) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req rollRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	outcome, err := a.roller.Evaluate(req.Notation, req.Advantage, req.Disadvantage)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if req.CampaignID != nil {
		userID := UserID(r.Context())
		data := map[string]any{
			"notation":     outcome.Notation,
			"rolls":        outcome.Rolls,
			"selected":     outcome.Selected,
			"modifier":     outcome.Modifier,
			"total":        outcome.Total,
			"advantage":    outcome.Advantage,
			"disadvantage": outcome.Disadvantage,
		}
		if req.Label != "" {
			data["label"] = req.Label
		}
		// Log failures never void a roll the player has already seen.
		if err := a.gamelog.Append(r.Context(), event.Entry{
			CampaignID: *req.CampaignID,
			UserID:     &userID,
			Type:       event.TypeDiceRoll,
			Data:       data,
		}); err != nil {
			a.logger.Warn("recording dice roll failed", zap.Error(err))
		}
	}

	resp := toRollResponse(outcome)
	resp.Label = req.Label
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleQuickRoll(w http.ResponseWriter, r *http.Request) {
	outcome, err := a.roller.Quick(r.PathValue("notation"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRollResponse(outcome))
}
