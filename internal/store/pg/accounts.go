package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"aiverse.club/internal/auth"
)

const accountColumns = `id, username, email, password_hash, role, permissions, is_active, created_at, updated_at`

func (s *Store) AccountByID(ctx context.Context, id string) (auth.Account, error) {
	if s.db == nil {
		return auth.Account{}, errNoDB
	}
	var acc auth.Account
	err := s.db.GetContext(ctx, &acc, `select `+accountColumns+` from accounts where id = $1`, id)
	if err != nil {
		return auth.Account{}, mapError(err)
	}
	return acc, nil
}

func (s *Store) AccountByIDAndRole(ctx context.Context, id string, role auth.Role) (auth.Account, error) {
	if s.db == nil {
		return auth.Account{}, errNoDB
	}
	var acc auth.Account
	err := s.db.GetContext(ctx, &acc, `
		select `+accountColumns+`
		from accounts
		where id = $1 and role = $2
	`, id, role)
	if err != nil {
		return auth.Account{}, mapError(err)
	}
	return acc, nil
}

// AccountByIdentifier prefers an exact username match over an email match.
func (s *Store) AccountByIdentifier(ctx context.Context, identifier string) (auth.Account, error) {
	if s.db == nil {
		return auth.Account{}, errNoDB
	}
	var acc auth.Account
	err := s.db.GetContext(ctx, &acc, `
		select `+accountColumns+`
		from accounts
		where username = $1 or lower(email) = lower($1)
		order by (username = $1) desc
		limit 1
	`, identifier)
	if err != nil {
		return auth.Account{}, mapError(err)
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]auth.Account, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var out []auth.Account
	if err := s.db.SelectContext(ctx, &out, `select `+accountColumns+` from accounts order by created_at desc`); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *auth.Account) error {
	if s.db == nil {
		return errNoDB
	}
	return insertAccount(ctx, s.db, acc)
}

func insertAccount(ctx context.Context, ex sqlx.ExtContext, acc *auth.Account) error {
	_, err := sqlx.NamedExecContext(ctx, ex, `
		insert into accounts (id, username, email, password_hash, role, permissions, is_active, created_at, updated_at)
		values (:id, :username, :email, :password_hash, :role, :permissions, :is_active, :created_at, :updated_at)
	`, acc)
	return mapError(err)
}

func (s *Store) UpdateAccount(ctx context.Context, id string, upd auth.AccountUpdate) error {
	if s.db == nil {
		return errNoDB
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Permissions != nil {
		sets = append(sets, fmt.Sprintf("permissions = $%d", idx))
		args = append(args, *upd.Permissions)
		idx++
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.Active)
		idx++
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`update accounts set %s where id = $%d`, strings.Join(sets, ", "), idx)
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// SetPasswordHash keeps a linked jury profile's copy of the hash in step with the account.
func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	if s.db == nil {
		return errNoDB
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			update accounts set password_hash = $2, updated_at = now()
			where id = $1
		`, id, hash)
		if err != nil {
			return err
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			update jury_profiles set password_hash = $2, updated_at = now()
			where account_id = $1
		`, id, hash)
		return err
	})
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
