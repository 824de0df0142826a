package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/auth"
	"github.com/jmorland/gametable/internal/game/character"
	"github.com/jmorland/gametable/internal/game/combat"
	"github.com/jmorland/gametable/internal/game/condition"
	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/storage/postgres"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Unrecognised errors
// become 500s with the detail kept out of the response body.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dice.ErrInvalidNotation),
		errors.Is(err, character.ErrUnknownAbility),
		errors.Is(err, condition.ErrUnknownType),
		errors.Is(err, combat.ErrNoParticipants):
		return http.StatusBadRequest
	case errors.Is(err, postgres.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, postgres.ErrNotCampaignDM):
		return http.StatusForbidden
	case errors.Is(err, combat.ErrNoActiveCombat),
		errors.Is(err, postgres.ErrUserNotFound),
		errors.Is(err, postgres.ErrCampaignNotFound),
		errors.Is(err, postgres.ErrCharacterNotFound),
		errors.Is(err, postgres.ErrConditionNotFound):
		return http.StatusNotFound
	case errors.Is(err, combat.ErrCombatAlreadyActive),
		errors.Is(err, postgres.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a malformed payload without going through error
// mapping.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
