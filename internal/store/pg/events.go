package pg

import (
	"context"
	"database/sql"

	"aiverse.club/internal/auth"
)

func (s *Store) ListEvents(ctx context.Context, status string) ([]auth.Event, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var out []auth.Event
	err := s.db.SelectContext(ctx, &out, `
		select id, title, coalesce(description, '') as description,
			to_char(event_date, 'YYYY-MM-DD') as event_date, coalesce(venue, '') as venue,
			status, created_by, created_at
		from events
		where $1 = '' or status = $1
		order by event_date desc
	`, status)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EventOwner returns "" for events whose creator was removed.
func (s *Store) EventOwner(ctx context.Context, id string) (string, error) {
	if s.db == nil {
		return "", errNoDB
	}
	var owner sql.NullString
	if err := s.db.QueryRowContext(ctx, `select created_by from events where id = $1`, id).Scan(&owner); err != nil {
		return "", mapError(err)
	}
	return owner.String, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from events where id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
