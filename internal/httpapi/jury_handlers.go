package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
)

type assignmentRequest struct {
	JuryID  string `json:"juryId"`
	EventID string `json:"eventId"`
}

func (a *API) handleListJury(w http.ResponseWriter, r *http.Request) {
	members, err := a.jury.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jury": members})
}

func (a *API) handleCreateJury(w http.ResponseWriter, r *http.Request) {
	var req auth.JuryInput
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	profile, err := a.jury.Create(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.JuryCreated, map[string]any{
		"jury_id":    profile.ID,
		"account_id": profile.AccountID,
	})
	w.Header().Set("Location", "/api/jury/"+profile.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Jury member added successfully",
		"id":         profile.ID,
		"loginEmail": profile.Email,
	})
}

func (a *API) handleUpdateJury(w http.ResponseWriter, r *http.Request) {
	var req auth.JuryInput
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := a.jury.Update(r.Context(), id, req); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.JuryUpdated, map[string]any{"jury_id": id})
	writeMessage(w, "Jury member updated successfully")
}

func (a *API) handleDeleteJury(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.jury.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.JuryDeleted, map[string]any{"jury_id": id})
	writeMessage(w, "Jury member deleted successfully")
}

func (a *API) handleAssignJury(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.jury.Assign(r.Context(), req.JuryID, req.EventID); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.JuryAssigned, map[string]any{"jury_id": req.JuryID, "event_id": req.EventID})
	writeMessage(w, "Jury member assigned to event successfully")
}

func (a *API) handleUnassignJury(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.jury.Unassign(r.Context(), req.JuryID, req.EventID); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.JuryUnassigned, map[string]any{"jury_id": req.JuryID, "event_id": req.EventID})
	writeMessage(w, "Jury member unassigned successfully")
}

func (a *API) handleJuryAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := a.jury.Assignments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (a *API) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := a.jury.AssignmentsFor(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}
