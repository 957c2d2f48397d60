package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expires_at"`
	User      auth.PrincipalSummary `json:"user"`
}

type userResponse struct {
	User auth.PrincipalSummary `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	res, err := a.login.Login(r.Context(), identifier, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		obs.ObserveLogin(obs.LoginInvalidCredentials)
		_ = a.audit.Record(r.Context(), audit.LoginFailed, map[string]any{"identifier": identifier})
		a.writeError(w, r, err)
		return
	case errors.Is(err, auth.ErrInvalidInput):
		a.writeError(w, r, err)
		return
	default:
		obs.ObserveLogin(obs.LoginError)
		a.writeError(w, r, err)
		return
	}

	obs.ObserveLogin(obs.LoginSuccess)
	ctx := auth.ContextWithPrincipal(r.Context(), res.Principal)
	_ = a.audit.Record(ctx, audit.LoginSucceeded, nil)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.Principal.Summary(),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{User: principal(r).Summary()})
}

// handleLogout is stateless; the client discards its token.
func (a *API) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, "Logout successful")
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.accounts.ChangePassword(r.Context(), principal(r), req.CurrentPassword, req.NewPassword); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.PasswordChanged, nil)
	writeMessage(w, "Password changed successfully")
}
