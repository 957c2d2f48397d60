package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"aiverse.club/internal/auth"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeError maps service errors to status codes in one place. Unknown errors are logged and
// reported as a generic 500.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *auth.AccessError
	switch {
	case errors.As(err, &ae):
		code := http.StatusUnauthorized
		if ae.Kind == auth.KindForbidden {
			code = http.StatusForbidden
		}
		writeErrorMessage(w, code, ae.Message)
	case errors.Is(err, auth.ErrInvalidInput):
		writeErrorMessage(w, http.StatusBadRequest, clientMessage(err, auth.ErrInvalidInput, "Invalid request"))
	case errors.Is(err, auth.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, clientMessage(err, auth.ErrNotFound, "Not found"))
	case errors.Is(err, auth.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, clientMessage(err, auth.ErrConflict, "Already exists"))
	case errors.Is(err, auth.ErrImmutable):
		writeErrorMessage(w, http.StatusForbidden, clientMessage(err, auth.ErrImmutable, "Access denied"))
	default:
		a.log.WithError(err).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			Error("request failed")
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// clientMessage returns the text following "<sentinel>: " in err, or fallback.
func clientMessage(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return fallback
}

// decodeJSON reads one JSON value. Failures are reported as invalid input.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: Request body too large", auth.ErrInvalidInput)
		}
		return fmt.Errorf("%w: Invalid request body", auth.ErrInvalidInput)
	}
	return nil
}
