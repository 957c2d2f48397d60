package auth

import "context"

// AccountStore persists accounts. Lookups return ErrNotFound when no row matches.
type AccountStore interface {
	AccountByID(ctx context.Context, id string) (Account, error)
	AccountByIDAndRole(ctx context.Context, id string, role Role) (Account, error)
	// AccountByIdentifier matches username or email.
	AccountByIdentifier(ctx context.Context, identifier string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, account *Account) error
	UpdateAccount(ctx context.Context, id string, update AccountUpdate) error
	// SetPasswordHash updates the account and, for jury accounts, the linked profile.
	SetPasswordHash(ctx context.Context, id, hash string) error
	DeleteAccount(ctx context.Context, id string) error
}

// AccountUpdate carries optional admin-side changes.
type AccountUpdate struct {
	Permissions *ModuleList
	Active      *bool
}

// JuryStore persists jury profiles together with their accounts and assignments.
type JuryStore interface {
	JuryProfileByID(ctx context.Context, id string) (JuryProfile, error)
	JuryProfileByAccountID(ctx context.Context, accountID string) (JuryProfile, error)
	JuryProfileByEmail(ctx context.Context, email string) (JuryProfile, error)
	ListJuryProfiles(ctx context.Context) ([]JuryProfile, error)
	// CreateJuryProfile inserts the account and the profile in one transaction.
	CreateJuryProfile(ctx context.Context, profile *JuryProfile, account *Account) error
	// UpdateJuryProfile writes the profile and mirrors name and email onto its account.
	UpdateJuryProfile(ctx context.Context, profile *JuryProfile) error
	// DeleteJuryProfile removes the profile, its account and its assignments.
	DeleteJuryProfile(ctx context.Context, id string) error

	Assign(ctx context.Context, juryID, eventID string) error
	Unassign(ctx context.Context, juryID, eventID string) error
	Assignments(ctx context.Context, juryID string) ([]Assignment, error)
	IsAssigned(ctx context.Context, juryID, eventID string) (bool, error)
	AssignmentsByJury(ctx context.Context) (map[string][]Assignment, error)
}

// EventStore exposes the event rows guarded by this service.
type EventStore interface {
	ListEvents(ctx context.Context, status string) ([]Event, error)
	EventOwner(ctx context.Context, id string) (string, error)
	DeleteEvent(ctx context.Context, id string) error
}

// RegistrationStore exposes event registrations to jury scoring.
type RegistrationStore interface {
	TeamsForEvent(ctx context.Context, eventID string) ([]Team, error)
	// SetMarks returns ErrNotFound when the registration is not part of the event.
	SetMarks(ctx context.Context, eventID, registrationID string, marks *string) error
	// SetMarksBulk writes all marks in one transaction, skipping registrations of other
	// events, and reports how many rows changed.
	SetMarksBulk(ctx context.Context, eventID string, marks map[string]string) (int, error)
}
