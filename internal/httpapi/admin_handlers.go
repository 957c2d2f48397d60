package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
)

type updateAdminRequest struct {
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"is_active"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (a *API) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := a.accounts.ListAdmins(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (a *API) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req auth.NewTeamAdmin
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	acc, err := a.accounts.CreateTeamAdmin(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.AdminCreated, map[string]any{
		"target_id":   acc.ID,
		"username":    acc.Username,
		"permissions": acc.Permissions,
	})
	w.Header().Set("Location", "/api/admins/"+acc.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Team admin created successfully",
		"admin":   acc,
	})
}

func (a *API) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req updateAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.accounts.UpdateAdmin(r.Context(), id, req.Permissions, req.IsActive); err != nil {
		a.writeError(w, r, err)
		return
	}
	fields := map[string]any{"target_id": id}
	if req.Permissions != nil {
		fields["permissions"] = req.Permissions
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	_ = a.audit.Record(r.Context(), audit.AdminUpdated, fields)
	writeMessage(w, "Admin updated successfully")
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.accounts.ResetPassword(r.Context(), id, req.NewPassword); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.AdminPassReset, map[string]any{"target_id": id})
	writeMessage(w, "Password reset successfully")
}

func (a *API) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.accounts.DeleteAdmin(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.AdminDeleted, map[string]any{"target_id": id})
	writeMessage(w, "Admin deleted successfully")
}
