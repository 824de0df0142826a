package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jmorland/gametable/internal/storage/postgres"
)

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PreferredLang string `json:"preferred_lang"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PreferredLang string    `json:"preferred_lang"`
	CreatedAt     time.Time `json:"created_at"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(u *postgres.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PreferredLang: u.PreferredLang,
		CreatedAt:     u.CreatedAt,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		badRequest(w, "username, email, and password are required")
		return
	}

	u, err := a.users.Create(r.Context(), req.Username, req.Email, req.Password, req.PreferredLang)
	if err != nil {
		a.writeError(w, err)
		return
	}

	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: toUserResponse(u), Token: token})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	u, err := a.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: toUserResponse(u), Token: token})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.GetByID(r.Context(), UserID(r.Context()))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
