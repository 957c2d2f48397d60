package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/auth/authtest"
	"aiverse.club/internal/httpapi"
	"aiverse.club/internal/session"
)

type server struct {
	url   string
	store *authtest.MemStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("session-secret")
	require.NoError(t, err)
	store := authtest.NewMemStore()
	hasher := auth.NewHasher(bcrypt.MinCost)

	api := httpapi.New(httpapi.Deps{
		Resolver: auth.NewResolver(tokens, store, store),
		Login: auth.NewAuthenticator(tokens, hasher, store,
			auth.AccountCredentials{Accounts: store},
			auth.JuryCredentials{Jury: store},
		),
		Accounts: auth.NewAccountService(store, hasher),
		Jury:     auth.NewJuryService(store, hasher),
		Events:   store,
		Scoring:  auth.NewScoringService(store),
	}, httpapi.Options{})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		srv.Close()
		api.Close()
	})

	put := func(id, username string, role auth.Role, perms ...auth.Module) {
		hash, err := hasher.Hash("password1")
		require.NoError(t, err)
		store.PutAccount(auth.Account{
			ID:           id,
			Username:     username,
			Email:        username + "@aiverse.club",
			PasswordHash: hash,
			Role:         role,
			Permissions:  auth.ModuleList(perms),
			Active:       true,
		})
	}
	put("root", "root", auth.RoleSuperAdmin)
	put("alice", "alice", auth.RoleTeamAdmin, auth.ModuleEvents, auth.ModuleGallery)
	put("jj", "judge", auth.RoleJury)
	return &server{url: srv.URL, store: store}
}

var ctx = context.Background()

func TestLoginAndPermissions(t *testing.T) {
	srv := newServer(t)
	c := session.New(srv.url, nil)

	assert.False(t, c.IsAuthenticated())
	assert.False(t, c.HasPermission(auth.ModuleEvents))

	u, err := c.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeamAdmin, u.Role)
	assert.True(t, c.IsAuthenticated())
	assert.NotEmpty(t, c.Token())

	assert.True(t, c.HasPermission(auth.ModuleEvents))
	assert.True(t, c.HasPermission(auth.ModuleGallery))
	assert.False(t, c.HasPermission(auth.ModuleTeam))
}

func TestHasPermissionByRole(t *testing.T) {
	srv := newServer(t)

	root := session.New(srv.url, nil)
	_, err := root.Login(ctx, "root", "password1")
	require.NoError(t, err)
	for _, m := range auth.Modules {
		assert.True(t, root.HasPermission(m), m)
	}

	jury := session.New(srv.url, nil)
	u, err := jury.Login(ctx, "judge", "password1")
	require.NoError(t, err)
	assert.Empty(t, u.Permissions)
	for _, m := range auth.Modules {
		assert.False(t, jury.HasPermission(m), m)
	}
}

func TestLoginFailureKeepsNoSession(t *testing.T) {
	srv := newServer(t)
	store := &session.MemoryStore{}
	c := session.New(srv.url, store)

	_, err := c.Login(ctx, "bob@nowhere.com", "password1")
	require.Error(t, err)
	assert.True(t, session.IsUnauthorized(err))
	var se *session.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid credentials", se.Message)

	assert.False(t, c.IsAuthenticated())
	tok, _ := store.Load()
	assert.Empty(t, tok)
}

func TestBootstrapFromFileStore(t *testing.T) {
	srv := newServer(t)
	store := session.FileStore{Path: filepath.Join(t.TempDir(), "aiverse", "token")}

	first := session.New(srv.url, store)
	_, err := first.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	second := session.New(srv.url, store)
	require.NoError(t, second.Bootstrap(ctx))
	u, ok := second.User()
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, first.Token(), second.Token())
}

func TestBootstrapWithoutToken(t *testing.T) {
	srv := newServer(t)
	c := session.New(srv.url, &session.MemoryStore{})
	require.NoError(t, c.Bootstrap(ctx))
	assert.False(t, c.IsAuthenticated())
}

func TestBootstrapDiscardsRejectedToken(t *testing.T) {
	srv := newServer(t)
	store := &session.MemoryStore{}
	require.NoError(t, store.Save("not-a-token"))

	c := session.New(srv.url, store)
	require.NoError(t, c.Bootstrap(ctx))
	assert.False(t, c.IsAuthenticated())
	tok, _ := store.Load()
	assert.Empty(t, tok)
}

func TestUnauthorizedClearsForbiddenKeeps(t *testing.T) {
	srv := newServer(t)
	store := &session.MemoryStore{}
	c := session.New(srv.url, store)
	_, err := c.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	err = c.Do(ctx, http.MethodGet, "/api/admins", nil, nil)
	require.Error(t, err)
	assert.True(t, session.IsForbidden(err))
	assert.True(t, c.IsAuthenticated(), "403 keeps the session")
	tok, _ := store.Load()
	assert.NotEmpty(t, tok)

	srv.store.SetActive("alice", false)
	err = c.Do(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	require.Error(t, err)
	var se *session.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "Account is deactivated", se.Message)

	assert.False(t, c.IsAuthenticated(), "401 ends the session")
	tok, _ = store.Load()
	assert.Empty(t, tok)

	assert.ErrorIs(t, c.Do(ctx, http.MethodGet, "/api/auth/me", nil, nil), session.ErrNotAuthenticated)
}

func TestLogout(t *testing.T) {
	srv := newServer(t)
	store := session.FileStore{Path: filepath.Join(t.TempDir(), "token")}
	c := session.New(srv.url, store)
	_, err := c.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsAuthenticated())
	assert.Empty(t, c.Token())
	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	// logging out twice is harmless
	require.NoError(t, c.Logout(ctx))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := session.FileStore{Path: filepath.Join(t.TempDir(), "nested", "token")}

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.Save("abc.def.ghi"))
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
