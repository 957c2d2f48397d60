package httpapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
)

const (
	serviceName           = "aiverse-api"
	defaultLoginPerMinute = 10
	defaultAPIPerMinute   = 300
)

// Pinger is implemented by the database store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks that dependencies answer. A nil DB is always ready.
type ReadyProbe struct {
	DB Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.Ping(ctx)
}

// Deps are the services the HTTP layer drives.
type Deps struct {
	Log      logrus.FieldLogger
	Resolver *auth.Resolver
	Login    *auth.Authenticator
	Accounts *auth.AccountService
	Jury     *auth.JuryService
	Events   auth.EventStore
	Scoring  *auth.ScoringService
	Audit    *audit.Logger
	Ready    ReadyProbe
}

// RateLimit holds per-IP budgets for the login and api tiers.
type RateLimit struct {
	Enabled        bool
	LoginPerMinute int
	APIPerMinute   int
}

// Options tune transport behaviour.
type Options struct {
	Version      string
	CORSOrigins  []string
	MaxBodyBytes int64
	RateLimit    RateLimit
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP. Enable it only
	// behind a proxy that overwrites those headers.
	TrustProxy bool
}

// API is the HTTP layer.
type API struct {
	log      logrus.FieldLogger
	resolver *auth.Resolver
	login    *auth.Authenticator
	accounts *auth.AccountService
	jury     *auth.JuryService
	events   auth.EventStore
	scoring  *auth.ScoringService
	audit    *audit.Logger
	ready    ReadyProbe
	opts     Options

	loginLimiter *rateLimiter
	apiLimiter   *rateLimiter
	done         chan struct{}
	closeOnce    sync.Once

	handler http.Handler
}

// New builds the API and its router.
func New(d Deps, opts Options) *API {
	log := d.Log
	if log == nil {
		log = logrus.New()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	a := &API{
		log:      log.WithField("component", "httpapi"),
		resolver: d.Resolver,
		login:    d.Login,
		accounts: d.Accounts,
		jury:     d.Jury,
		events:   d.Events,
		scoring:  d.Scoring,
		audit:    d.Audit,
		ready:    d.Ready,
		opts:     opts,
		done:     make(chan struct{}),
	}
	if opts.RateLimit.Enabled {
		if opts.RateLimit.LoginPerMinute <= 0 {
			opts.RateLimit.LoginPerMinute = defaultLoginPerMinute
		}
		if opts.RateLimit.APIPerMinute <= 0 {
			opts.RateLimit.APIPerMinute = defaultAPIPerMinute
		}
		a.opts.RateLimit = opts.RateLimit
		a.loginLimiter = newRateLimiter(opts.RateLimit.LoginPerMinute)
		a.apiLimiter = newRateLimiter(opts.RateLimit.APIPerMinute)
		go a.loginLimiter.run(a.done)
		go a.apiLimiter.run(a.done)
	}
	a.handler = a.buildRouter()
	return a
}

// Handler returns the root http.Handler.
func (a *API) Handler() http.Handler {
	return a.handler
}

// Close stops background work.
func (a *API) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.opts.Version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		a.log.WithError(err).Warn("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  "database unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
