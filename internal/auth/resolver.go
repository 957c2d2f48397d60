package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver turns bearer tokens into principals, re-reading account state on every call.
type Resolver struct {
	tokens   *TokenIssuer
	accounts AccountStore
	jury     JuryStore
}

// NewResolver wires a resolver over the account and jury stores.
func NewResolver(tokens *TokenIssuer, accounts AccountStore, jury JuryStore) *Resolver {
	return &Resolver{tokens: tokens, accounts: accounts, jury: jury}
}

// Authenticate verifies token and resolves its principal. Missing, invalid, expired, unknown
// and deactivated all fail as ErrUnauthenticated with distinct messages; storage failures
// are returned as-is.
func (r *Resolver) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, unauthenticated(MsgNoToken)
	}
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, unauthenticated(MsgInvalidToken)
	}
	return r.Resolve(ctx, claims)
}

// AuthenticateOptional behaves like Authenticate but yields a nil principal instead of an
// authentication failure.
func (r *Resolver) AuthenticateOptional(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	p, err := r.Authenticate(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	return p, err
}

// Resolve loads the principal named by verified claims.
func (r *Resolver) Resolve(ctx context.Context, claims Claims) (*Principal, error) {
	if claims.Role == RoleJury {
		return r.resolveJury(ctx, claims.Subject)
	}

	acc, err := r.accounts.AccountByID(ctx, claims.Subject)
	if err := checkAccount(err, acc); err != nil {
		return nil, err
	}
	if acc.Role != claims.Role {
		// role changed since the token was issued
		return nil, unauthenticated(MsgUserNotFound)
	}
	return principalFromAccount(acc), nil
}

func (r *Resolver) resolveJury(ctx context.Context, accountID string) (*Principal, error) {
	acc, err := r.accounts.AccountByIDAndRole(ctx, accountID, RoleJury)
	if err := checkAccount(err, acc); err != nil {
		return nil, err
	}
	p := principalFromAccount(acc)
	p.Permissions = map[Module]struct{}{ModuleEvents: {}}

	profile, err := lookupJuryProfile(ctx, r.jury, acc.ID, acc.Email)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		p.Name = profile.Name
		p.JuryProfileID = profile.ID
	}
	return p, nil
}

func checkAccount(err error, acc Account) error {
	if errors.Is(err, ErrNotFound) {
		return unauthenticated(MsgUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if !acc.Active {
		return unauthenticated(MsgDeactivated)
	}
	return nil
}

// lookupJuryProfile finds the profile linked to a jury account: by foreign key first, then by
// the shared email for rows written before the link existed. No match is not an error.
func lookupJuryProfile(ctx context.Context, jury JuryStore, accountID, email string) (*JuryProfile, error) {
	if jury == nil {
		return nil, nil
	}
	profile, err := jury.JuryProfileByAccountID(ctx, accountID)
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load jury profile: %w", err)
	}
	if email == "" {
		return nil, nil
	}
	profile, err = jury.JuryProfileByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load jury profile: %w", err)
	}
	if profile.AccountID != "" && profile.AccountID != accountID {
		return nil, nil
	}
	return &profile, nil
}
