package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"aiverse.club/internal/auth"
)

// Nullable text columns are coalesced so profiles scan into plain strings.
const profileColumns = `id, coalesce(account_id, '') as account_id, name, email,
	coalesce(phone, '') as phone, coalesce(designation, '') as designation,
	coalesce(organization, '') as organization, coalesce(bio, '') as bio,
	coalesce(photo_url, '') as photo_url, coalesce(password_hash, '') as password_hash,
	created_at, updated_at`

const assignmentQuery = `
	select ja.jury_id, ja.event_id, e.title as event_title,
		to_char(e.event_date, 'YYYY-MM-DD') as event_date, ja.assigned_at
	from jury_assignments ja
	join events e on e.id = ja.event_id`

func (s *Store) JuryProfileByID(ctx context.Context, id string) (auth.JuryProfile, error) {
	return s.profileWhere(ctx, `id = $1`, id)
}

func (s *Store) JuryProfileByAccountID(ctx context.Context, accountID string) (auth.JuryProfile, error) {
	return s.profileWhere(ctx, `account_id = $1`, accountID)
}

func (s *Store) JuryProfileByEmail(ctx context.Context, email string) (auth.JuryProfile, error) {
	return s.profileWhere(ctx, `lower(email) = lower($1)`, email)
}

func (s *Store) profileWhere(ctx context.Context, cond string, arg any) (auth.JuryProfile, error) {
	if s.db == nil {
		return auth.JuryProfile{}, errNoDB
	}
	var p auth.JuryProfile
	err := s.db.GetContext(ctx, &p, `select `+profileColumns+` from jury_profiles where `+cond+` limit 1`, arg)
	if err != nil {
		return auth.JuryProfile{}, mapError(err)
	}
	return p, nil
}

func (s *Store) ListJuryProfiles(ctx context.Context) ([]auth.JuryProfile, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var out []auth.JuryProfile
	if err := s.db.SelectContext(ctx, &out, `select `+profileColumns+` from jury_profiles order by name`); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateJuryProfile(ctx context.Context, p *auth.JuryProfile, acc *auth.Account) error {
	if s.db == nil {
		return errNoDB
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertAccount(ctx, tx, acc); err != nil {
			return err
		}
		_, err := tx.NamedExecContext(ctx, `
			insert into jury_profiles (id, account_id, name, email, phone, designation, organization, bio, photo_url, password_hash, created_at, updated_at)
			values (:id, :account_id, :name, :email, :phone, :designation, :organization, :bio, :photo_url, :password_hash, :created_at, :updated_at)
		`, p)
		return mapError(err)
	})
}

// UpdateJuryProfile mirrors the email onto the linked account's username and email.
func (s *Store) UpdateJuryProfile(ctx context.Context, p *auth.JuryProfile) error {
	if s.db == nil {
		return errNoDB
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			update jury_profiles
			set name = $2, email = $3, phone = $4, designation = $5, organization = $6,
				bio = $7, photo_url = $8, updated_at = $9
			where id = $1
		`, p.ID, p.Name, p.Email, p.Phone, p.Designation, p.Organization, p.Bio, p.PhotoURL, p.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		if p.AccountID == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			update accounts set username = $2, email = $2, updated_at = $3
			where id = $1
		`, p.AccountID, p.Email, p.UpdatedAt)
		return mapError(err)
	})
}

// DeleteJuryProfile removes the profile and its account; assignments cascade.
func (s *Store) DeleteJuryProfile(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var accountID sql.NullString
		err := tx.QueryRowContext(ctx, `select account_id from jury_profiles where id = $1 for update`, id).Scan(&accountID)
		if err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `delete from jury_profiles where id = $1`, id); err != nil {
			return err
		}
		if accountID.Valid && accountID.String != "" {
			if _, err := tx.ExecContext(ctx, `delete from accounts where id = $1`, accountID.String); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Assign(ctx context.Context, juryID, eventID string) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `
		insert into jury_assignments (jury_id, event_id)
		values ($1, $2)
		on conflict (jury_id, event_id) do nothing
	`, juryID, eventID)
	return mapError(err)
}

func (s *Store) Unassign(ctx context.Context, juryID, eventID string) error {
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.ExecContext(ctx, `delete from jury_assignments where jury_id = $1 and event_id = $2`, juryID, eventID)
	return err
}

func (s *Store) Assignments(ctx context.Context, juryID string) ([]auth.Assignment, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var out []auth.Assignment
	err := s.db.SelectContext(ctx, &out, assignmentQuery+`
		where ja.jury_id = $1
		order by e.event_date desc`, juryID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) IsAssigned(ctx context.Context, juryID, eventID string) (bool, error) {
	if s.db == nil {
		return false, errNoDB
	}
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		select exists (select 1 from jury_assignments where jury_id = $1 and event_id = $2)
	`, juryID, eventID).Scan(&ok)
	return ok, err
}

func (s *Store) AssignmentsByJury(ctx context.Context) (map[string][]auth.Assignment, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var all []auth.Assignment
	if err := s.db.SelectContext(ctx, &all, assignmentQuery+`
		order by ja.jury_id, e.event_date desc`); err != nil {
		return nil, err
	}
	out := make(map[string][]auth.Assignment)
	for _, a := range all {
		out[a.JuryID] = append(out[a.JuryID], a)
	}
	return out, nil
}
