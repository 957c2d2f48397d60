package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
)

// Access says how a route treats the bearer token.
type Access string

const (
	// AccessPublic ignores the token.
	AccessPublic Access = "public"
	// AccessOptional resolves a principal when a valid token is present.
	AccessOptional Access = "optional"
	// AccessRequired rejects requests without a valid token.
	AccessRequired Access = "required"
)

type tier int

const (
	tierNone tier = iota
	tierLogin
	tierAPI
)

// Route is one row of the route policy table. The {id} URL parameter, when present, is the
// resource id handed to ownership guards.
type Route struct {
	Method  string
	Pattern string
	Access  Access
	Policy  auth.Policy

	tier    tier
	handler http.HandlerFunc
}

// Routes returns the route policy table the router is built from.
func (a *API) Routes() []Route {
	signedIn := auth.Policy{auth.Authenticated()}
	superAdmin := auth.Policy{auth.Authenticated(), auth.SuperAdminOnly()}
	events := auth.Policy{auth.Authenticated(), auth.HasPermission(auth.ModuleEvents)}
	juryOnly := auth.Policy{auth.Authenticated(), auth.RoleIn(auth.RoleJury)}
	eventOwner := auth.Policy{
		auth.Authenticated(),
		auth.HasPermission(auth.ModuleEvents),
		auth.OwnsResource(a.eventOwner),
	}
	scoring := auth.Policy{
		auth.Authenticated(),
		auth.RoleIn(auth.RoleJury),
		auth.AssignedToEvent(a.jury.IsAssigned),
	}

	return []Route{
		{Method: http.MethodPost, Pattern: "/api/auth/login", Access: AccessPublic, tier: tierLogin, handler: a.handleLogin},
		{Method: http.MethodGet, Pattern: "/api/auth/me", Access: AccessRequired, Policy: signedIn, tier: tierAPI, handler: a.handleMe},
		{Method: http.MethodPost, Pattern: "/api/auth/logout", Access: AccessRequired, Policy: signedIn, tier: tierAPI, handler: a.handleLogout},
		{Method: http.MethodPost, Pattern: "/api/auth/change-password", Access: AccessRequired, Policy: signedIn, tier: tierLogin, handler: a.handleChangePassword},

		{Method: http.MethodGet, Pattern: "/api/admins", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handleListAdmins},
		{Method: http.MethodPost, Pattern: "/api/admins", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handleCreateAdmin},
		{Method: http.MethodPut, Pattern: "/api/admins/{id}", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handleUpdateAdmin},
		{Method: http.MethodPost, Pattern: "/api/admins/{id}/reset-password", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handleResetPassword},
		{Method: http.MethodDelete, Pattern: "/api/admins/{id}", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handleDeleteAdmin},

		{Method: http.MethodGet, Pattern: "/api/jury", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleListJury},
		{Method: http.MethodPost, Pattern: "/api/jury", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleCreateJury},
		{Method: http.MethodPut, Pattern: "/api/jury/{id}", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleUpdateJury},
		{Method: http.MethodDelete, Pattern: "/api/jury/{id}", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleDeleteJury},
		{Method: http.MethodPost, Pattern: "/api/jury/assign", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleAssignJury},
		{Method: http.MethodPost, Pattern: "/api/jury/unassign", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleUnassignJury},
		{Method: http.MethodGet, Pattern: "/api/jury/{id}/assignments", Access: AccessRequired, Policy: events, tier: tierAPI, handler: a.handleJuryAssignments},
		{Method: http.MethodGet, Pattern: "/api/jury/me/assignments", Access: AccessRequired, Policy: juryOnly, tier: tierAPI, handler: a.handleMyAssignments},

		{Method: http.MethodGet, Pattern: "/api/events", Access: AccessOptional, tier: tierAPI, handler: a.handleListEvents},
		{Method: http.MethodDelete, Pattern: "/api/events/{id}", Access: AccessRequired, Policy: eventOwner, tier: tierAPI, handler: a.handleDeleteEvent},
		{Method: http.MethodGet, Pattern: "/api/events/{id}/teams", Access: AccessRequired, Policy: scoring, tier: tierAPI, handler: a.handleEventTeams},
		{Method: http.MethodPut, Pattern: "/api/events/{id}/registrations/{regId}/marks", Access: AccessRequired, Policy: scoring, tier: tierAPI, handler: a.handleSetMarks},
		{Method: http.MethodPost, Pattern: "/api/events/{id}/marks", Access: AccessRequired, Policy: scoring, tier: tierAPI, handler: a.handleSaveMarks},

		{Method: http.MethodGet, Pattern: "/api/policies", Access: AccessRequired, Policy: superAdmin, tier: tierAPI, handler: a.handlePolicies},
	}
}

func (a *API) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if a.opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(obs.Instrument)
	r.Use(requestLogger(a.log))
	r.Use(SecurityHeaders)
	r.Use(corsMiddleware(a.opts.CORSOrigins))
	r.Use(MaxBodyBytes(a.opts.MaxBodyBytes))

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Handle("/metrics", obs.Handler())

	for _, rt := range a.Routes() {
		var h http.Handler = a.protect(rt)
		if lim := a.limiterFor(rt.tier); lim != nil {
			h = lim.middleware(h)
		}
		r.Method(rt.Method, rt.Pattern, h)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (a *API) limiterFor(t tier) *rateLimiter {
	switch t {
	case tierLogin:
		return a.loginLimiter
	case tierAPI:
		return a.apiLimiter
	}
	return nil
}

// policyView is the JSON shape of a route table row.
type policyView struct {
	Method  string   `json:"method"`
	Pattern string   `json:"pattern"`
	Access  Access   `json:"access"`
	Guards  []string `json:"guards"`
}

func (a *API) handlePolicies(w http.ResponseWriter, _ *http.Request) {
	routes := a.Routes()
	out := make([]policyView, 0, len(routes))
	for _, rt := range routes {
		out = append(out, policyView{
			Method:  rt.Method,
			Pattern: rt.Pattern,
			Access:  rt.Access,
			Guards:  rt.Policy.Names(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": out})
}
