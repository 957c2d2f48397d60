// Package authtest provides an in-memory store for tests of packages built on auth.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"aiverse.club/internal/auth"
)

// MemStore implements auth.AccountStore, auth.JuryStore, auth.EventStore and
// auth.RegistrationStore in memory.
// Setting Err makes every call fail with it.
type MemStore struct {
	mu          sync.Mutex
	accounts    map[string]auth.Account
	profiles    map[string]auth.JuryProfile
	events      map[string]auth.Event
	assignments map[string]map[string]time.Time
	teams       map[string]auth.Team

	Err error
}

var (
	_ auth.AccountStore = (*MemStore)(nil)
	_ auth.JuryStore    = (*MemStore)(nil)
	_ auth.EventStore   = (*MemStore)(nil)

	_ auth.RegistrationStore = (*MemStore)(nil)
)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		accounts:    make(map[string]auth.Account),
		profiles:    make(map[string]auth.JuryProfile),
		events:      make(map[string]auth.Event),
		assignments: make(map[string]map[string]time.Time),
		teams:       make(map[string]auth.Team),
	}
}

// PutAccount inserts or replaces an account without uniqueness checks.
func (m *MemStore) PutAccount(a auth.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

// PutProfile inserts or replaces a jury profile without uniqueness checks.
func (m *MemStore) PutProfile(p auth.JuryProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// PutEvent inserts or replaces an event.
func (m *MemStore) PutEvent(e auth.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

// PutTeam inserts or replaces a registration.
func (m *MemStore) PutTeam(t auth.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

// Team returns a stored registration for assertions.
func (m *MemStore) Team(id string) (auth.Team, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	return t, ok
}

// Account returns a stored account for assertions.
func (m *MemStore) Account(id string) (auth.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	return a, ok
}

// Profile returns a stored profile for assertions.
func (m *MemStore) Profile(id string) (auth.JuryProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	return p, ok
}

// SetActive flips the active flag of an account.
func (m *MemStore) SetActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	a.Active = active
	m.accounts[id] = a
}

func (m *MemStore) AccountByID(_ context.Context, id string) (auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return auth.Account{}, m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return auth.Account{}, auth.ErrNotFound
	}
	return a, nil
}

func (m *MemStore) AccountByIDAndRole(ctx context.Context, id string, role auth.Role) (auth.Account, error) {
	a, err := m.AccountByID(ctx, id)
	if err != nil {
		return auth.Account{}, err
	}
	if a.Role != role {
		return auth.Account{}, auth.ErrNotFound
	}
	return a, nil
}

func (m *MemStore) AccountByIdentifier(_ context.Context, identifier string) (auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return auth.Account{}, m.Err
	}
	for _, a := range m.accounts {
		if a.Username == identifier || strings.EqualFold(a.Email, identifier) {
			return a, nil
		}
	}
	return auth.Account{}, auth.ErrNotFound
}

func (m *MemStore) ListAccounts(_ context.Context) ([]auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]auth.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemStore) CreateAccount(_ context.Context, a *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.accountTaken(a.Username, a.Email, "") {
		return auth.ErrConflict
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *MemStore) UpdateAccount(_ context.Context, id string, u auth.AccountUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	if u.Permissions != nil {
		a.Permissions = *u.Permissions
	}
	if u.Active != nil {
		a.Active = *u.Active
	}
	m.accounts[id] = a
	return nil
}

func (m *MemStore) SetPasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.PasswordHash = hash
	m.accounts[id] = a
	for pid, p := range m.profiles {
		if p.AccountID == id {
			p.PasswordHash = hash
			m.profiles[pid] = p
		}
	}
	return nil
}

func (m *MemStore) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.accounts[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.accounts, id)
	for pid, p := range m.profiles {
		if p.AccountID == id {
			delete(m.profiles, pid)
			delete(m.assignments, pid)
		}
	}
	for eid, e := range m.events {
		if e.CreatedBy != nil && *e.CreatedBy == id {
			e.CreatedBy = nil
			m.events[eid] = e
		}
	}
	return nil
}

func (m *MemStore) JuryProfileByID(_ context.Context, id string) (auth.JuryProfile, error) {
	return m.findProfile(func(p auth.JuryProfile) bool { return p.ID == id })
}

func (m *MemStore) JuryProfileByAccountID(_ context.Context, accountID string) (auth.JuryProfile, error) {
	return m.findProfile(func(p auth.JuryProfile) bool { return p.AccountID != "" && p.AccountID == accountID })
}

func (m *MemStore) JuryProfileByEmail(_ context.Context, email string) (auth.JuryProfile, error) {
	return m.findProfile(func(p auth.JuryProfile) bool { return strings.EqualFold(p.Email, email) })
}

func (m *MemStore) ListJuryProfiles(_ context.Context) ([]auth.JuryProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]auth.JuryProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) CreateJuryProfile(_ context.Context, p *auth.JuryProfile, a *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.accountTaken(a.Username, a.Email, "") {
		return auth.ErrConflict
	}
	for _, existing := range m.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return auth.ErrConflict
		}
	}
	m.accounts[a.ID] = *a
	m.profiles[p.ID] = *p
	return nil
}

func (m *MemStore) UpdateJuryProfile(_ context.Context, p *auth.JuryProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.profiles[p.ID]; !ok {
		return auth.ErrNotFound
	}
	for id, existing := range m.profiles {
		if id != p.ID && strings.EqualFold(existing.Email, p.Email) {
			return auth.ErrConflict
		}
	}
	if p.AccountID != "" {
		if m.accountTaken(p.Email, p.Email, p.AccountID) {
			return auth.ErrConflict
		}
		if a, ok := m.accounts[p.AccountID]; ok {
			a.Email = p.Email
			a.Username = p.Email
			m.accounts[a.ID] = a
		}
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *MemStore) DeleteJuryProfile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	p, ok := m.profiles[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(m.profiles, id)
	delete(m.assignments, id)
	if p.AccountID != "" {
		delete(m.accounts, p.AccountID)
	}
	return nil
}

func (m *MemStore) Assign(_ context.Context, juryID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.profiles[juryID]; !ok {
		return auth.ErrNotFound
	}
	if _, ok := m.events[eventID]; !ok {
		return auth.ErrNotFound
	}
	if m.assignments[juryID] == nil {
		m.assignments[juryID] = make(map[string]time.Time)
	}
	if _, ok := m.assignments[juryID][eventID]; !ok {
		m.assignments[juryID][eventID] = time.Now().UTC()
	}
	return nil
}

func (m *MemStore) Unassign(_ context.Context, juryID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.assignments[juryID], eventID)
	return nil
}

func (m *MemStore) Assignments(_ context.Context, juryID string) ([]auth.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.assignmentsLocked(juryID), nil
}

func (m *MemStore) IsAssigned(_ context.Context, juryID, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.assignments[juryID][eventID]
	return ok, nil
}

func (m *MemStore) AssignmentsByJury(_ context.Context) (map[string][]auth.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string][]auth.Assignment, len(m.assignments))
	for juryID := range m.assignments {
		if list := m.assignmentsLocked(juryID); len(list) > 0 {
			out[juryID] = list
		}
	}
	return out, nil
}

func (m *MemStore) ListEvents(_ context.Context, status string) ([]auth.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]auth.Event, 0, len(m.events))
	for _, e := range m.events {
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate > out[j].EventDate })
	return out, nil
}

func (m *MemStore) EventOwner(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	e, ok := m.events[id]
	if !ok {
		return "", auth.ErrNotFound
	}
	if e.CreatedBy == nil {
		return "", nil
	}
	return *e.CreatedBy, nil
}

func (m *MemStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.events[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.events, id)
	for juryID := range m.assignments {
		delete(m.assignments[juryID], id)
	}
	for regID, t := range m.teams {
		if t.EventID == id {
			delete(m.teams, regID)
		}
	}
	return nil
}

func (m *MemStore) TeamsForEvent(_ context.Context, eventID string) ([]auth.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []auth.Team
	for _, t := range m.teams {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) SetMarks(_ context.Context, eventID, registrationID string, marks *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	t, ok := m.teams[registrationID]
	if !ok || t.EventID != eventID {
		return auth.ErrNotFound
	}
	t.Marks = marks
	m.teams[registrationID] = t
	return nil
}

func (m *MemStore) SetMarksBulk(_ context.Context, eventID string, marks map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for regID, text := range marks {
		t, ok := m.teams[regID]
		if !ok || t.EventID != eventID {
			continue
		}
		text := text
		t.Marks = &text
		m.teams[regID] = t
		n++
	}
	return n, nil
}

func (m *MemStore) assignmentsLocked(juryID string) []auth.Assignment {
	out := make([]auth.Assignment, 0, len(m.assignments[juryID]))
	for eventID, at := range m.assignments[juryID] {
		e := m.events[eventID]
		out = append(out, auth.Assignment{
			JuryID:     juryID,
			EventID:    eventID,
			EventTitle: e.Title,
			EventDate:  e.EventDate,
			AssignedAt: at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

func (m *MemStore) findProfile(match func(auth.JuryProfile) bool) (auth.JuryProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return auth.JuryProfile{}, m.Err
	}
	for _, p := range m.profiles {
		if match(p) {
			return p, nil
		}
	}
	return auth.JuryProfile{}, auth.ErrNotFound
}

func (m *MemStore) accountTaken(username, email, exceptID string) bool {
	for id, a := range m.accounts {
		if id == exceptID {
			continue
		}
		if a.Username == username || strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}
