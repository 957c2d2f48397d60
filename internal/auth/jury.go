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

// JuryService manages jury profiles, their accounts and event assignments.
type JuryService struct {
	jury   JuryStore
	hasher *Hasher
	now    func() time.Time
}

// NewJuryService constructs a JuryService.
func NewJuryService(jury JuryStore, hasher *Hasher) *JuryService {
	return &JuryService{jury: jury, hasher: hasher, now: time.Now}
}

// JuryInput is the editable part of a jury profile. Password is only used on create.
type JuryInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	Designation  string `json:"designation"`
	Organization string `json:"organization"`
	Bio          string `json:"bio"`
	PhotoURL     string `json:"photo_url"`
}

func (in *JuryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Designation = strings.TrimSpace(in.Designation)
	in.Organization = strings.TrimSpace(in.Organization)
}

// JuryMember is a profile together with its assignments.
type JuryMember struct {
	JuryProfile
	Assignments []Assignment `json:"assignments"`
}

// List returns all profiles ordered by name with their assignments.
func (s *JuryService) List(ctx context.Context) ([]JuryMember, error) {
	profiles, err := s.jury.ListJuryProfiles(ctx)
	if err != nil {
		return nil, err
	}
	byJury, err := s.jury.AssignmentsByJury(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]JuryMember, 0, len(profiles))
	for _, p := range profiles {
		as := byJury[p.ID]
		if as == nil {
			as = []Assignment{}
		}
		out = append(out, JuryMember{JuryProfile: p, Assignments: as})
	}
	return out, nil
}

// Create inserts a profile and its jury account in one transaction. Both share the email,
// which also becomes the account username.
func (s *JuryService) Create(ctx context.Context, in JuryInput) (JuryProfile, error) {
	in.normalize()
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, passwordRules()...),
	)
	if err != nil {
		return JuryProfile{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return JuryProfile{}, err
	}

	now := s.now().UTC()
	account := Account{
		ID:           ids.New(),
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleJury,
		Permissions:  ModuleList{},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := JuryProfile{
		ID:           ids.New(),
		AccountID:    account.ID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Designation:  in.Designation,
		Organization: in.Organization,
		Bio:          in.Bio,
		PhotoURL:     in.PhotoURL,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.jury.CreateJuryProfile(ctx, &profile, &account); err != nil {
		if errors.Is(err, ErrConflict) {
			return JuryProfile{}, fmt.Errorf("%w: Email already exists", ErrConflict)
		}
		return JuryProfile{}, err
	}
	return profile, nil
}

// Update rewrites profile fields and mirrors name and email onto the linked account.
func (s *JuryService) Update(ctx context.Context, id string, in JuryInput) (JuryProfile, error) {
	in.normalize()
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, is.Email),
	)
	if err != nil {
		return JuryProfile{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	profile, err := s.load(ctx, id)
	if err != nil {
		return JuryProfile{}, err
	}
	profile.Name = in.Name
	profile.Email = in.Email
	profile.Phone = in.Phone
	profile.Designation = in.Designation
	profile.Organization = in.Organization
	profile.Bio = in.Bio
	if in.PhotoURL != "" {
		profile.PhotoURL = in.PhotoURL
	}
	profile.UpdatedAt = s.now().UTC()
	if err := s.jury.UpdateJuryProfile(ctx, &profile); err != nil {
		if errors.Is(err, ErrConflict) {
			return JuryProfile{}, fmt.Errorf("%w: Email already exists", ErrConflict)
		}
		return JuryProfile{}, err
	}
	return profile, nil
}

// Delete removes the profile, its account and its assignments.
func (s *JuryService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.jury.DeleteJuryProfile(ctx, id)
}

// Assign links a jury member to an event. Assigning twice is a no-op.
func (s *JuryService) Assign(ctx context.Context, juryID, eventID string) error {
	juryID, eventID, err := assignmentKey(juryID, eventID)
	if err != nil {
		return err
	}
	if err := s.jury.Assign(ctx, juryID, eventID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: Jury member or event not found", ErrNotFound)
		}
		return err
	}
	return nil
}

// Unassign removes a link. Removing a missing link is a no-op.
func (s *JuryService) Unassign(ctx context.Context, juryID, eventID string) error {
	juryID, eventID, err := assignmentKey(juryID, eventID)
	if err != nil {
		return err
	}
	return s.jury.Unassign(ctx, juryID, eventID)
}

// Assignments lists the events a jury member may score.
func (s *JuryService) Assignments(ctx context.Context, juryID string) ([]Assignment, error) {
	out, err := s.jury.Assignments(ctx, juryID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Assignment{}
	}
	return out, nil
}

// IsAssigned reports whether the jury member may score the event. It backs AssignedToEvent.
func (s *JuryService) IsAssigned(ctx context.Context, juryID, eventID string) (bool, error) {
	return s.jury.IsAssigned(ctx, juryID, eventID)
}

// AssignmentsFor lists the caller's own assignments. A jury account without a profile has none.
func (s *JuryService) AssignmentsFor(ctx context.Context, p *Principal) ([]Assignment, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if p.JuryProfileID == "" {
		return []Assignment{}, nil
	}
	return s.Assignments(ctx, p.JuryProfileID)
}

func (s *JuryService) load(ctx context.Context, id string) (JuryProfile, error) {
	p, err := s.jury.JuryProfileByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return JuryProfile{}, fmt.Errorf("%w: Jury member not found", ErrNotFound)
	}
	return p, err
}

func assignmentKey(juryID, eventID string) (string, string, error) {
	juryID = strings.TrimSpace(juryID)
	eventID = strings.TrimSpace(eventID)
	if juryID == "" || eventID == "" {
		return "", "", fmt.Errorf("%w: Jury ID and Event ID are required", ErrInvalidInput)
	}
	return juryID, eventID, nil
}
