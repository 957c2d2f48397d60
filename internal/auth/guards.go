package auth

import (
	"context"
	"errors"
	"strings"
)

// OwnerLookup returns the owning account id of a resource, "" when it has none.
// It returns ErrNotFound for a missing resource.
type OwnerLookup func(ctx context.Context, resourceID string) (string, error)

// Guard is one access predicate evaluated against a resolved principal.
// Every guard fails unauthenticated when there is no principal.
type Guard struct {
	name  string
	check func(ctx context.Context, p *Principal, resourceID string) error
}

// Name identifies the guard in policy listings and metrics.
func (g Guard) Name() string { return g.name }

// Check evaluates the guard. resourceID is only used by ownership guards.
func (g Guard) Check(ctx context.Context, p *Principal, resourceID string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if g.check == nil {
		return nil
	}
	return g.check(ctx, p, resourceID)
}

// Authenticated passes for any resolved principal.
func Authenticated() Guard {
	return Guard{name: "authenticated"}
}

// SuperAdminOnly passes for super admins.
func SuperAdminOnly() Guard {
	return Guard{
		name: "super_admin",
		check: func(_ context.Context, p *Principal, _ string) error {
			if p.Role != RoleSuperAdmin {
				return forbidden(MsgSuperAdminOnly)
			}
			return nil
		},
	}
}

// HasPermission passes for super admins and for team admins granted m.
func HasPermission(m Module) Guard {
	return Guard{
		name: "permission:" + string(m),
		check: func(_ context.Context, p *Principal, _ string) error {
			if !p.HasPermission(m) {
				return forbidden(msgPermissionStart + string(m))
			}
			return nil
		},
	}
}

// OwnsResource passes for super admins and for the account that owns the resource.
func OwnsResource(owner OwnerLookup) Guard {
	return Guard{
		name: "owns_resource",
		check: func(ctx context.Context, p *Principal, resourceID string) error {
			if p.Role == RoleSuperAdmin {
				return nil
			}
			ownerID, err := owner(ctx, resourceID)
			if err != nil {
				return err
			}
			if ownerID == "" || ownerID != p.ID {
				return forbidden(MsgNotOwner)
			}
			return nil
		},
	}
}

// AssignmentCheck reports whether a jury profile may score an event.
type AssignmentCheck func(ctx context.Context, juryID, eventID string) (bool, error)

// AssignedToEvent passes for principals whose jury profile is assigned to the event named by
// the resource id. Place it after RoleIn(RoleJury).
func AssignedToEvent(assigned AssignmentCheck) Guard {
	return Guard{
		name: "assigned_to_event",
		check: func(ctx context.Context, p *Principal, eventID string) error {
			if p.JuryProfileID == "" || eventID == "" {
				return forbidden(MsgNotAssigned)
			}
			ok, err := assigned(ctx, p.JuryProfileID, eventID)
			if err != nil {
				return err
			}
			if !ok {
				return forbidden(MsgNotAssigned)
			}
			return nil
		},
	}
}

// RoleIn passes for principals holding one of roles. It gates role-scoped endpoints such as
// jury self-service that do not go through module permissions.
func RoleIn(roles ...Role) Guard {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return Guard{
		name: "role:" + strings.Join(names, "|"),
		check: func(_ context.Context, p *Principal, _ string) error {
			for _, r := range roles {
				if p.Role == r {
					return nil
				}
			}
			return ErrForbidden
		},
	}
}

// Policy is the ordered guard list of one operation.
type Policy []Guard

// Evaluate runs guards in order and stops at the first failure, returning the guard that
// failed alongside its error.
func (pol Policy) Evaluate(ctx context.Context, p *Principal, resourceID string) (Guard, error) {
	for _, g := range pol {
		if err := g.Check(ctx, p, resourceID); err != nil {
			return g, err
		}
	}
	return Guard{}, nil
}

// Names lists guard names in evaluation order.
func (pol Policy) Names() []string {
	out := make([]string, 0, len(pol))
	for _, g := range pol {
		out = append(out, g.name)
	}
	return out
}

func (pol Policy) String() string {
	if len(pol) == 0 {
		return "public"
	}
	return strings.Join(pol.Names(), " -> ")
}

// IsAccessError reports whether err is an authentication or authorization failure rather
// than an internal one.
func IsAccessError(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}
