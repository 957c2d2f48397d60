package auth_test

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/auth/authtest"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store    *authtest.MemStore
	hasher   *auth.Hasher
	clock    *fakeClock
	tokens   *auth.TokenIssuer
	resolver *auth.Resolver
	login    *auth.Authenticator
	accounts *auth.AccountService
	jury     *auth.JuryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenIssuer("test-secret", auth.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	store := authtest.NewMemStore()
	hasher := auth.NewHasher(bcrypt.MinCost)
	return &fixture{
		store:    store,
		hasher:   hasher,
		clock:    clock,
		tokens:   tokens,
		resolver: auth.NewResolver(tokens, store, store),
		login: auth.NewAuthenticator(tokens, hasher, store,
			auth.AccountCredentials{Accounts: store},
			auth.JuryCredentials{Jury: store},
		),
		accounts: auth.NewAccountService(store, hasher),
		jury:     auth.NewJuryService(store, hasher),
	}
}

func (f *fixture) addAccount(t *testing.T, id, username, email, password string, role auth.Role, perms ...auth.Module) auth.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	acc := auth.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  auth.ModuleList(perms),
		Active:       true,
	}
	f.store.PutAccount(acc)
	return acc
}

func (f *fixture) token(t *testing.T, subject string, role auth.Role) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(subject, role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

var ctx = context.Background()
