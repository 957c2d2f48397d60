package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aiverse.club/internal/audit"
)

type marksRequest struct {
	Marks json.RawMessage `json:"marks"`
}

type bulkMarksRequest struct {
	Marks map[string]json.RawMessage `json:"marks"`
}

func (a *API) handleEventTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.scoring.Teams(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (a *API) handleSetMarks(w http.ResponseWriter, r *http.Request) {
	var req marksRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	eventID, regID := chi.URLParam(r, "id"), chi.URLParam(r, "regId")
	if err := a.scoring.SetMarks(r.Context(), eventID, regID, req.Marks); err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.MarksUpdated, map[string]any{
		"event_id":        eventID,
		"registration_id": regID,
		"jury_id":         principal(r).JuryProfileID,
	})
	writeMessage(w, "Marks updated successfully")
}

func (a *API) handleSaveMarks(w http.ResponseWriter, r *http.Request) {
	var req bulkMarksRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "id")
	n, err := a.scoring.SaveMarks(r.Context(), eventID, req.Marks)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.MarksUpdated, map[string]any{
		"event_id": eventID,
		"updated":  n,
		"jury_id":  principal(r).JuryProfileID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Marks saved successfully", "updated": n})
}
