package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ScoringService records jury marks against event registrations.
type ScoringService struct {
	regs RegistrationStore
}

func NewScoringService(regs RegistrationStore) *ScoringService {
	return &ScoringService{regs: regs}
}

// Teams lists the registrations of an event, newest first.
func (s *ScoringService) Teams(ctx context.Context, eventID string) ([]Team, error) {
	out, err := s.regs.TeamsForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Team{}
	}
	return out, nil
}

// SetMarks replaces the marks of one registration. A JSON string is stored trimmed, any other
// value as compact JSON, and null clears the marks.
func (s *ScoringService) SetMarks(ctx context.Context, eventID, registrationID string, raw json.RawMessage) error {
	marks, err := marksText(raw)
	if err != nil {
		return err
	}
	if err := s.regs.SetMarks(ctx, eventID, registrationID, marks); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: Registration not found for this event", ErrNotFound)
		}
		return err
	}
	return nil
}

// SaveMarks stores marks for many registrations keyed by registration id. Ids outside the
// event are ignored. It returns the number of registrations updated.
func (s *ScoringService) SaveMarks(ctx context.Context, eventID string, marks map[string]json.RawMessage) (int, error) {
	if len(marks) == 0 {
		return 0, fmt.Errorf("%w: Marks data is required", ErrInvalidInput)
	}
	texts := make(map[string]string, len(marks))
	for regID, raw := range marks {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return 0, fmt.Errorf("%w: Invalid marks for %s", ErrInvalidInput, regID)
		}
		texts[regID] = buf.String()
	}
	return s.regs.SetMarksBulk(ctx, eventID, texts)
}

func marksText(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: Invalid marks", ErrInvalidInput)
		}
		s = strings.TrimSpace(s)
		return &s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: Invalid marks", ErrInvalidInput)
	}
	s := buf.String()
	return &s, nil
}
