package pg

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"

	"aiverse.club/internal/auth"
)

func (s *Store) TeamsForEvent(ctx context.Context, eventID string) ([]auth.Team, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	var out []auth.Team
	err := s.db.SelectContext(ctx, &out, `
		select id, event_id, team_name, team_size as member_count, team_lead_name as leader_name,
			team_lead_email, coalesce(team_lead_phone, '') as team_lead_phone,
			jury_marks as marks, created_at
		from registrations
		where event_id = $1
		order by created_at desc
	`, eventID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetMarks(ctx context.Context, eventID, registrationID string, marks *string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `
		update registrations set jury_marks = $1 where id = $2 and event_id = $3
	`, marks, registrationID, eventID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) SetMarksBulk(ctx context.Context, eventID string, marks map[string]string) (int, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	ids := make([]string, 0, len(marks))
	for id := range marks {
		ids = append(ids, id)
	}
	// rows are locked in id order
	sort.Strings(ids)

	updated := 0
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `
				update registrations set jury_marks = $1 where id = $2 and event_id = $3
			`, marks[id], id, eventID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
