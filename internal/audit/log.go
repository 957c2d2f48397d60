// Package audit records security-relevant actions as structured log entries.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"aiverse.club/internal/auth"
)

// Event names.
const (
	LoginSucceeded   = "auth.login.succeeded"
	LoginFailed      = "auth.login.failed"
	PasswordChanged  = "auth.password.changed"
	AdminCreated     = "admin.created"
	AdminUpdated     = "admin.updated"
	AdminDeleted     = "admin.deleted"
	AdminPassReset   = "admin.password_reset"
	SuperAdminSeeded = "admin.seeded"
	JuryCreated      = "jury.created"
	JuryUpdated      = "jury.updated"
	JuryDeleted      = "jury.deleted"
	JuryAssigned     = "jury.assigned"
	JuryUnassigned   = "jury.unassigned"
	EventDeleted     = "event.deleted"
	MarksUpdated     = "jury.marks_updated"
	AccessDenied     = "access.denied"
)

// Logger writes audit entries through a logrus logger.
type Logger struct {
	log logrus.FieldLogger
	now func() time.Time
}

// New returns an audit logger. A nil log discards entries.
func New(log logrus.FieldLogger) *Logger {
	return &Logger{log: log, now: time.Now}
}

// Record writes one entry enriched with the request id and acting principal found in ctx.
func (l *Logger) Record(ctx context.Context, event string, fields logrus.Fields) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	if l == nil || l.log == nil {
		return nil
	}
	entry := logrus.Fields{
		"type":  "audit",
		"event": event,
		"at":    l.now().UTC().Format(time.RFC3339Nano),
	}
	if rid := chimw.GetReqID(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if p := auth.PrincipalFromContext(ctx); p != nil {
		entry["actor_id"] = p.ID
		entry["actor_role"] = string(p.Role)
	}
	for k, v := range fields {
		if _, reserved := entry[k]; reserved {
			k = "field_" + k
		}
		entry[k] = v
	}
	l.log.WithFields(entry).Info("audit")
	return nil
}
