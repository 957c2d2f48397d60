package auth

import (
	"context"
	"errors"
	"strings"
)

// Credential is what a login needs from a backing store.
type Credential struct {
	AccountID     string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	Permissions   ModuleList
	Active        bool
	JuryProfileID string
}

// CredentialSource finds a credential by the identifier typed at login.
// It returns ErrNotFound when it has no match.
type CredentialSource interface {
	Name() string
	FindCredential(ctx context.Context, identifier string) (Credential, error)
}

// AccountCredentials looks identifiers up by username or email in accounts.
type AccountCredentials struct {
	Accounts AccountStore
}

func (AccountCredentials) Name() string { return "accounts" }

func (s AccountCredentials) FindCredential(ctx context.Context, identifier string) (Credential, error) {
	acc, err := s.Accounts.AccountByIdentifier(ctx, identifier)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		AccountID:    acc.ID,
		Name:         acc.Username,
		Email:        acc.Email,
		PasswordHash: acc.PasswordHash,
		Role:         acc.Role,
		Permissions:  acc.Permissions,
		Active:       acc.Active,
	}, nil
}

// JuryCredentials looks identifiers up as email in jury profiles. The role is always jury
// and the identity is the linked account; a profile without one cannot sign in.
type JuryCredentials struct {
	Jury JuryStore
}

func (JuryCredentials) Name() string { return "jury_profiles" }

func (s JuryCredentials) FindCredential(ctx context.Context, identifier string) (Credential, error) {
	profile, err := s.Jury.JuryProfileByEmail(ctx, strings.ToLower(identifier))
	if err != nil {
		return Credential{}, err
	}
	if profile.AccountID == "" {
		return Credential{}, ErrNotFound
	}
	return Credential{
		AccountID:     profile.AccountID,
		Name:          profile.Name,
		Email:         profile.Email,
		PasswordHash:  profile.PasswordHash,
		Role:          RoleJury,
		Active:        true,
		JuryProfileID: profile.ID,
	}, nil
}

// findCredential walks sources in order and returns the first match.
func findCredential(ctx context.Context, sources []CredentialSource, identifier string) (Credential, bool, error) {
	for _, src := range sources {
		cred, err := src.FindCredential(ctx, identifier)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Credential{}, false, err
		}
		return cred, true, nil
	}
	return Credential{}, false, nil
}
