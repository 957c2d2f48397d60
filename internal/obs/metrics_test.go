package obs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	Init()
	Init()

	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/api/admins/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/admins/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admins/"+id, nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("unexpected status %d", rr.Code)
		}
	}
	after := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/admins/{id}", "418"))
	if after-before != 2 {
		t.Fatalf("expected two samples under the route pattern, got %v", after-before)
	}
}

func TestRoutePatternUnmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	if got := RoutePattern(req); got != "unmatched" {
		t.Fatalf("RoutePattern=%q", got)
	}
}

func TestObserveCounters(t *testing.T) {
	Init()
	before := counterValue(t, loginAttempts.WithLabelValues(LoginInvalidCredentials))
	ObserveLogin(LoginInvalidCredentials)
	if got := counterValue(t, loginAttempts.WithLabelValues(LoginInvalidCredentials)); got != before+1 {
		t.Fatalf("login counter=%v, want %v", got, before+1)
	}
	beforeGuard := counterValue(t, guardDenials.WithLabelValues("permission:team"))
	ObserveGuardDenial("permission:team")
	if got := counterValue(t, guardDenials.WithLabelValues("permission:team")); got != beforeGuard+1 {
		t.Fatalf("guard counter=%v", got)
	}
}

func TestNewLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogOptions{Level: "warn", Format: "json", Output: &buf})
	if l.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level=%s", l.GetLevel())
	}
	l.Info("hidden")
	l.WithField("component", "test").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Fatalf("expected json output, got %s", out)
	}

	fallback := NewLogger(LogOptions{Level: "nonsense"})
	if fallback.GetLevel() != logrus.InfoLevel {
		t.Fatalf("fallback level=%s", fallback.GetLevel())
	}
}

func TestWrapStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	w := WrapStatus(rr)
	if WrapStatus(w) != w {
		t.Fatal("expected WrapStatus to be idempotent")
	}
	w.WriteHeader(http.StatusCreated)
	if Status(w) != http.StatusCreated {
		t.Fatalf("Status=%d", Status(w))
	}
	if Status(rr) != 0 {
		t.Fatal("expected 0 for an unwrapped writer")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
