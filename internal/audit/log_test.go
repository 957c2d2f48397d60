package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLogger(obs.LogOptions{Level: "info", Format: "json", Output: &buf})
	a := New(logger)
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-123")
	ctx = auth.ContextWithPrincipal(ctx, &auth.Principal{ID: "user-42", Role: auth.RoleSuperAdmin})

	if err := a.Record(ctx, AdminDeleted, map[string]any{"target_id": "alice", "event": "spoof"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != AdminDeleted {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["field_event"] != "spoof" {
		t.Fatalf("reserved key was not renamed: %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["actor_id"] != "user-42" || entry["actor_role"] != "super_admin" {
		t.Fatalf("unexpected actor: %v %v", entry["actor_id"], entry["actor_role"])
	}
	if entry["target_id"] != "alice" {
		t.Fatalf("missing field: %v", entry)
	}
	if entry["at"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp: %v", entry["at"])
	}
}

func TestRecordRejectsEmptyEvent(t *testing.T) {
	if err := New(obs.Discard()).Record(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event")
	}
}

func TestRecordAnonymous(t *testing.T) {
	var buf bytes.Buffer
	a := New(obs.NewLogger(obs.LogOptions{Format: "json", Output: &buf}))
	if err := a.Record(context.Background(), LoginFailed, map[string]any{"identifier": "mallory"}); err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if _, ok := entry["actor_id"]; ok {
		t.Fatalf("anonymous entry should have no actor: %v", entry)
	}
}
