package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
)

type eventView struct {
	auth.Event
	Assigned *bool `json:"assigned,omitempty"`
}

// handleListEvents is public. A jury caller also sees which events it is assigned to.
func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", auth.EventUpcoming, auth.EventLive, auth.EventCompleted:
	default:
		writeErrorMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}
	list, err := a.events.ListEvents(r.Context(), status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var assigned map[string]struct{}
	if p := principal(r); p != nil && p.Role == auth.RoleJury {
		mine, err := a.jury.AssignmentsFor(r.Context(), p)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		assigned = make(map[string]struct{}, len(mine))
		for _, as := range mine {
			assigned[as.EventID] = struct{}{}
		}
	}

	out := make([]eventView, 0, len(list))
	for _, e := range list {
		v := eventView{Event: e}
		if assigned != nil {
			_, ok := assigned[e.ID]
			v.Assigned = &ok
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.events.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			err = fmt.Errorf("%w: Event not found", auth.ErrNotFound)
		}
		a.writeError(w, r, err)
		return
	}
	_ = a.audit.Record(r.Context(), audit.EventDeleted, map[string]any{"event_id": id})
	writeMessage(w, "Event deleted successfully")
}
