package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"aiverse.club/internal/ids"
)

// AccountService manages admin accounts and self-service password changes.
type AccountService struct {
	accounts AccountStore
	hasher   *Hasher
	now      func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts AccountStore, hasher *Hasher) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher, now: time.Now}
}

// NewTeamAdmin is the input for creating a team admin.
type NewTeamAdmin struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Permissions []string `json:"permissions"`
}

// Validate checks field shapes. Module names are checked separately.
func (n NewTeamAdmin) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&n.Email, validation.Required, is.Email),
		validation.Field(&n.Password, passwordRules()...),
		validation.Field(&n.Permissions, validation.NotNil),
	)
}

// SuperAdminSeed describes the bootstrap super admin.
type SuperAdminSeed struct {
	Username string
	Email    string
	Password string
}

// ListAdmins returns super and team admins, newest first. Jury accounts are managed through
// jury profiles and are not listed.
func (s *AccountService) ListAdmins(ctx context.Context) ([]Account, error) {
	all, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(all))
	for _, a := range all {
		if a.Role == RoleJury {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateTeamAdmin validates input and inserts a new active team admin.
func (s *AccountService) CreateTeamAdmin(ctx context.Context, in NewTeamAdmin) (Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := in.Validate(); err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	perms, err := parseModules(in.Permissions)
	if err != nil {
		return Account{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Account{}, err
	}
	now := s.now().UTC()
	acc := Account{
		ID:           ids.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleTeamAdmin,
		Permissions:  perms,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, &acc); err != nil {
		if errors.Is(err, ErrConflict) {
			return Account{}, fmt.Errorf("%w: Username or email already exists", ErrConflict)
		}
		return Account{}, err
	}
	return acc, nil
}

// UpdateAdmin changes permissions and/or the active flag. Super admins cannot be modified.
func (s *AccountService) UpdateAdmin(ctx context.Context, id string, permissions []string, active *bool) error {
	if permissions == nil && active == nil {
		return fmt.Errorf("%w: No updates provided", ErrInvalidInput)
	}
	target, err := s.loadAdmin(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == RoleSuperAdmin {
		return fmt.Errorf("%w: Cannot modify super admin", ErrImmutable)
	}
	update := AccountUpdate{Active: active}
	if permissions != nil {
		perms, err := parseModules(permissions)
		if err != nil {
			return err
		}
		update.Permissions = &perms
	}
	return s.accounts.UpdateAccount(ctx, id, update)
}

// ResetPassword sets a new password for any account chosen by a super admin.
func (s *AccountService) ResetPassword(ctx context.Context, id, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if _, err := s.loadAdmin(ctx, id); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.accounts.SetPasswordHash(ctx, id, hash)
}

// DeleteAdmin removes an account. Super admins cannot be deleted.
func (s *AccountService) DeleteAdmin(ctx context.Context, id string) error {
	target, err := s.loadAdmin(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == RoleSuperAdmin {
		return fmt.Errorf("%w: Cannot delete super admin", ErrImmutable)
	}
	return s.accounts.DeleteAccount(ctx, id)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, p *Principal, current, next string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if current == "" {
		return fmt.Errorf("%w: Current password is required", ErrInvalidInput)
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	acc, err := s.accounts.AccountByID(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return unauthenticated(MsgUserNotFound)
	}
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(acc.PasswordHash, current); err != nil {
		return &AccessError{Kind: KindInvalidCredentials, Message: MsgWrongPassword}
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.accounts.SetPasswordHash(ctx, acc.ID, hash)
}

// EnsureSuperAdmin creates the seed super admin unless its username already exists.
// It reports whether an account was created.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context, seed SuperAdminSeed) (bool, error) {
	seed.Username = strings.TrimSpace(seed.Username)
	seed.Email = strings.TrimSpace(strings.ToLower(seed.Email))
	err := validation.ValidateStruct(&seed,
		validation.Field(&seed.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&seed.Email, validation.Required, is.Email),
		validation.Field(&seed.Password, passwordRules()...),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	existing, err := s.accounts.AccountByIdentifier(ctx, seed.Username)
	switch {
	case err == nil:
		if existing.Role != RoleSuperAdmin {
			return false, fmt.Errorf("%w: %s exists with role %s", ErrConflict, seed.Username, existing.Role)
		}
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	acc := Account{
		ID:           ids.New(),
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         RoleSuperAdmin,
		Permissions:  ModuleList{},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, &acc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AccountService) loadAdmin(ctx context.Context, id string) (Account, error) {
	acc, err := s.accounts.AccountByID(ctx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && acc.Role == RoleJury) {
		return Account{}, fmt.Errorf("%w: Admin not found", ErrNotFound)
	}
	return acc, err
}

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("%w: Password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("%w: Password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}
	return nil
}

func parseModules(in []string) (ModuleList, error) {
	out := make([]Module, 0, len(in))
	for _, raw := range in {
		m, err := ParseModule(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return dedupeModules(out), nil
}
