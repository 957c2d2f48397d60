package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aiverse.club/internal/auth"
)

func TestCreateTeamAdmin(t *testing.T) {
	f := newFixture(t)

	acc, err := f.accounts.CreateTeamAdmin(ctx, auth.NewTeamAdmin{
		Username:    "carol",
		Email:       "Carol@Example.com",
		Password:    "carol-pw",
		Permissions: []string{"events", "Gallery", "events"},
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeamAdmin, acc.Role)
	assert.Equal(t, "carol@example.com", acc.Email)
	assert.Equal(t, auth.ModuleList{auth.ModuleEvents, auth.ModuleGallery}, acc.Permissions)
	assert.True(t, acc.Active)

	res, err := f.login.Login(ctx, "carol", "carol-pw")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, res.Principal.ID)

	_, err = f.accounts.CreateTeamAdmin(ctx, auth.NewTeamAdmin{Username: "carol", Email: "c2@example.com", Password: "carol-pw", Permissions: []string{}})
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestCreateTeamAdminValidation(t *testing.T) {
	f := newFixture(t)
	bad := []auth.NewTeamAdmin{
		{Username: "", Email: "x@example.com", Password: "secret1", Permissions: []string{}},
		{Username: "dave", Email: "not-an-email", Password: "secret1", Permissions: []string{}},
		{Username: "dave", Email: "d@example.com", Password: "short", Permissions: []string{}},
		{Username: "dave", Email: "d@example.com", Password: "secret1"},
		{Username: "dave", Email: "d@example.com", Password: "secret1", Permissions: []string{"billing"}},
	}
	for _, in := range bad {
		_, err := f.accounts.CreateTeamAdmin(ctx, in)
		assert.ErrorIs(t, err, auth.ErrInvalidInput, "%+v", in)
	}
}

func TestUpdateAdmin(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "root", "root", "root@example.com", "root-pw", auth.RoleSuperAdmin)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin, auth.ModuleEvents)
	f.addAccount(t, "j1", "judge@example.com", "judge@example.com", "judge-pw", auth.RoleJury)

	assert.ErrorIs(t, f.accounts.UpdateAdmin(ctx, "alice", nil, nil), auth.ErrInvalidInput)
	assert.ErrorIs(t, f.accounts.UpdateAdmin(ctx, "ghost", []string{}, nil), auth.ErrNotFound)
	assert.ErrorIs(t, f.accounts.UpdateAdmin(ctx, "root", []string{"team"}, nil), auth.ErrImmutable)
	assert.ErrorIs(t, f.accounts.UpdateAdmin(ctx, "j1", []string{"team"}, nil), auth.ErrNotFound)

	require.NoError(t, f.accounts.UpdateAdmin(ctx, "alice", []string{"team", "home"}, nil))
	acc, _ := f.store.Account("alice")
	assert.Equal(t, auth.ModuleList{auth.ModuleTeam, auth.ModuleHome}, acc.Permissions)

	off := false
	require.NoError(t, f.accounts.UpdateAdmin(ctx, "alice", nil, &off))
	acc, _ = f.store.Account("alice")
	assert.False(t, acc.Active)
}

func TestPermissionChangeAppliesToLiveToken(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin, auth.ModuleEvents)
	tok := f.token(t, "alice", auth.RoleTeamAdmin)

	require.NoError(t, f.accounts.UpdateAdmin(ctx, "alice", []string{"gallery"}, nil))

	p, err := f.resolver.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.False(t, p.HasPermission(auth.ModuleEvents))
	assert.True(t, p.HasPermission(auth.ModuleGallery))
}

func TestDeleteAdmin(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "root", "root", "root@example.com", "root-pw", auth.RoleSuperAdmin)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin)

	assert.ErrorIs(t, f.accounts.DeleteAdmin(ctx, "root"), auth.ErrImmutable)
	require.NoError(t, f.accounts.DeleteAdmin(ctx, "alice"))
	assert.ErrorIs(t, f.accounts.DeleteAdmin(ctx, "alice"), auth.ErrNotFound)
}

func TestAdminOperationsIgnoreJuryAccounts(t *testing.T) {
	f := newFixture(t)
	profile, err := f.jury.Create(ctx, auth.JuryInput{Name: "Judge", Email: "judge@example.com", Password: "gavel-123"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, profile.AccountID, "other-pw"), auth.ErrNotFound)
	assert.ErrorIs(t, f.accounts.DeleteAdmin(ctx, profile.AccountID), auth.ErrNotFound)
	off := false
	assert.ErrorIs(t, f.accounts.UpdateAdmin(ctx, profile.AccountID, nil, &off), auth.ErrNotFound)

	_, err = f.login.Login(ctx, "judge@example.com", "gavel-123")
	require.NoError(t, err)
}

func TestPasswordByteLimit(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin)
	long := strings.Repeat("x", auth.MaxPasswordBytes+8)
	// 40 runes, 80 bytes
	wide := strings.Repeat("ü", 40)

	for _, pw := range []string{long, wide} {
		assert.ErrorIs(t, f.accounts.ResetPassword(ctx, "alice", pw), auth.ErrInvalidInput)
		p := &auth.Principal{ID: "alice", Role: auth.RoleTeamAdmin}
		assert.ErrorIs(t, f.accounts.ChangePassword(ctx, p, "alice-pw", pw), auth.ErrInvalidInput)
		_, err := f.accounts.CreateTeamAdmin(ctx, auth.NewTeamAdmin{Username: "dave", Email: "d@example.com", Password: pw, Permissions: []string{}})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
		_, err = f.jury.Create(ctx, auth.JuryInput{Name: "Judge", Email: "j@example.com", Password: pw})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
	}

	exact := strings.Repeat("y", auth.MaxPasswordBytes)
	require.NoError(t, f.accounts.ResetPassword(ctx, "alice", exact))
	_, err := f.login.Login(ctx, "alice", exact)
	require.NoError(t, err)

	_, err = f.hasher.Hash(long)
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestListAdminsSkipsJury(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "root", "root", "root@example.com", "root-pw", auth.RoleSuperAdmin)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin)
	f.addAccount(t, "j1", "judge@example.com", "judge@example.com", "judge-pw", auth.RoleJury)

	admins, err := f.accounts.ListAdmins(ctx)
	require.NoError(t, err)
	var ids []string
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"root", "alice"}, ids)
}

func TestResetAndChangePassword(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "alice", "alice", "alice@example.com", "alice-pw", auth.RoleTeamAdmin)

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, "alice", "123"), auth.ErrInvalidInput)
	require.NoError(t, f.accounts.ResetPassword(ctx, "alice", "reset-pw"))
	_, err := f.login.Login(ctx, "alice", "reset-pw")
	require.NoError(t, err)

	p := &auth.Principal{ID: "alice", Role: auth.RoleTeamAdmin}
	err = f.accounts.ChangePassword(ctx, p, "wrong-pw", "next-pw")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, "Current password is incorrect", accessMessage(t, err))

	require.NoError(t, f.accounts.ChangePassword(ctx, p, "reset-pw", "next-pw"))
	_, err = f.login.Login(ctx, "alice", "reset-pw")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.login.Login(ctx, "alice", "next-pw")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, nil, "a", "b"), auth.ErrUnauthenticated)
}

func TestEnsureSuperAdmin(t *testing.T) {
	f := newFixture(t)
	seed := auth.SuperAdminSeed{Username: "root", Email: "root@example.com", Password: "root-pw"}

	created, err := f.accounts.EnsureSuperAdmin(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.accounts.EnsureSuperAdmin(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.login.Login(ctx, "root", "root-pw")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleSuperAdmin, res.Principal.Role)
	for _, m := range auth.Modules {
		assert.True(t, res.Principal.HasPermission(m))
	}

	f.addAccount(t, "x", "eve", "eve@example.com", "eve-pw1", auth.RoleTeamAdmin)
	_, err = f.accounts.EnsureSuperAdmin(ctx, auth.SuperAdminSeed{Username: "eve", Email: "eve2@example.com", Password: "eve-pw1"})
	assert.ErrorIs(t, err, auth.ErrConflict)
}
