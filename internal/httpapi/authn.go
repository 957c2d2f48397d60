package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "bearer "
)

// bearerToken extracts the token from an Authorization header; any other scheme yields "".
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

// protect resolves the principal for rt, evaluates its policy and only then runs the handler.
func (a *API) protect(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := bearerToken(r.Header.Get(authHeader))

		var (
			p   *auth.Principal
			err error
		)
		switch rt.Access {
		case AccessRequired:
			p, err = a.resolver.Authenticate(ctx, token)
		case AccessOptional:
			p, err = a.resolver.AuthenticateOptional(ctx, token)
		}
		if err != nil {
			a.deny(w, r, "authenticated", err)
			return
		}
		if p != nil {
			ctx = auth.ContextWithPrincipal(ctx, p)
			ctx = auth.ContextWithToken(ctx, token)
			r = r.WithContext(ctx)
		}

		if failed, err := rt.Policy.Evaluate(ctx, p, chi.URLParam(r, "id")); err != nil {
			a.deny(w, r, failed.Name(), err)
			return
		}
		rt.handler(w, r)
	})
}

// deny writes a guard or authentication failure and records it.
func (a *API) deny(w http.ResponseWriter, r *http.Request, guard string, err error) {
	var ae *auth.AccessError
	if errors.As(err, &ae) {
		obs.ObserveGuardDenial(guard)
		if ae.Kind == auth.KindForbidden {
			_ = a.audit.Record(r.Context(), audit.AccessDenied, map[string]any{
				"guard":  guard,
				"method": r.Method,
				"route":  obs.RoutePattern(r),
				"reason": ae.Message,
			})
		}
	}
	a.writeError(w, r, err)
}

// eventOwner adapts the event store to auth.OwnerLookup.
func (a *API) eventOwner(ctx context.Context, id string) (string, error) {
	owner, err := a.events.EventOwner(ctx, id)
	if errors.Is(err, auth.ErrNotFound) {
		return "", fmt.Errorf("%w: Event not found", auth.ErrNotFound)
	}
	return owner, err
}

// principal returns the resolved principal of a protected request.
func principal(r *http.Request) *auth.Principal {
	return auth.PrincipalFromContext(r.Context())
}
