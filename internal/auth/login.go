package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal *Principal
}

// Authenticator checks login credentials against credential sources in priority order.
type Authenticator struct {
	sources []CredentialSource
	tokens  *TokenIssuer
	hasher  *Hasher
	jury    JuryStore
}

// NewAuthenticator builds an Authenticator. Sources are tried in the given order.
func NewAuthenticator(tokens *TokenIssuer, hasher *Hasher, jury JuryStore, sources ...CredentialSource) *Authenticator {
	return &Authenticator{sources: sources, tokens: tokens, hasher: hasher, jury: jury}
}

// Login verifies identifier and secret. Unknown identifiers, inactive accounts and wrong
// secrets all return ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, identifier, secret string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return LoginResult{}, fmt.Errorf("%w: Email/Username and password are required", ErrInvalidInput)
	}

	cred, ok, err := findCredential(ctx, a.sources, identifier)
	if err != nil {
		return LoginResult{}, fmt.Errorf("find credential: %w", err)
	}
	if !ok || !cred.Active || cred.PasswordHash == "" {
		a.hasher.Burn(secret)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := a.hasher.Verify(cred.PasswordHash, secret); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := a.tokens.Issue(cred.AccountID, cred.Role)
	if err != nil {
		return LoginResult{}, err
	}

	// Only team admins carry a permission list in the login summary; the
	// resolver grants jury {events} per request.
	p := &Principal{
		ID:          cred.AccountID,
		Name:        cred.Name,
		Email:       cred.Email,
		Role:        cred.Role,
		Permissions: map[Module]struct{}{},
	}
	switch cred.Role {
	case RoleTeamAdmin:
		p.Permissions = cred.Permissions.Set()
	case RoleJury:
		p.JuryProfileID = cred.JuryProfileID
		if p.JuryProfileID == "" {
			profile, err := lookupJuryProfile(ctx, a.jury, cred.AccountID, cred.Email)
			if err != nil {
				return LoginResult{}, err
			}
			if profile != nil {
				p.JuryProfileID = profile.ID
			}
		}
	}
	return LoginResult{Token: token, ExpiresAt: exp, Principal: p}, nil
}
