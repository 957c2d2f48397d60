package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is the coarse account class. Exactly three exist.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleTeamAdmin  Role = "team_admin"
	RoleJury       Role = "jury"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTeamAdmin, RoleJury:
		return true
	}
	return false
}

// Module is a functional area a team admin may be granted.
type Module string

const (
	ModuleHome       Module = "home"
	ModuleAbout      Module = "about"
	ModuleEvents     Module = "events"
	ModuleLiveEvents Module = "live_events"
	ModuleGallery    Module = "gallery"
	ModuleTeam       Module = "team"
)

// Modules lists every grantable module in display order.
var Modules = []Module{ModuleHome, ModuleAbout, ModuleEvents, ModuleLiveEvents, ModuleGallery, ModuleTeam}

// ParseModule normalizes and checks a module name.
func ParseModule(s string) (Module, error) {
	m := Module(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range Modules {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown module %q", ErrInvalidInput, s)
}

// ModuleList is the persisted permission list of an account. It is stored as a JSON array;
// NULL and empty both decode to an empty list.
type ModuleList []Module

// Value implements driver.Valuer.
func (l ModuleList) Value() (driver.Value, error) {
	if l == nil {
		l = ModuleList{}
	}
	b, err := json.Marshal([]Module(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ModuleList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ModuleList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("auth: cannot scan %T into ModuleList", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		*l = ModuleList{}
		return nil
	}
	var out []Module
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("auth: decode permissions: %w", err)
	}
	*l = dedupeModules(out)
	return nil
}

// Set returns the list as a membership set.
func (l ModuleList) Set() map[Module]struct{} {
	set := make(map[Module]struct{}, len(l))
	for _, m := range l {
		set[m] = struct{}{}
	}
	return set
}

func dedupeModules(in []Module) ModuleList {
	out := make(ModuleList, 0, len(in))
	seen := make(map[Module]struct{}, len(in))
	for _, m := range in {
		m = Module(strings.TrimSpace(string(m)))
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Account is a login-capable user row.
type Account struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Permissions  ModuleList `db:"permissions" json:"permissions"`
	Active       bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// JuryProfile holds jury display data. AccountID links it to its jury account.
type JuryProfile struct {
	ID           string    `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Designation  string    `db:"designation" json:"designation"`
	Organization string    `db:"organization" json:"organization"`
	Bio          string    `db:"bio" json:"bio"`
	PhotoURL     string    `db:"photo_url" json:"photo_url"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment permits a jury member to score an event.
type Assignment struct {
	JuryID     string    `db:"jury_id" json:"jury_id"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventTitle string    `db:"event_title" json:"title"`
	EventDate  string    `db:"event_date" json:"event_date"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// Team is an event registration as the jury sees it while scoring.
type Team struct {
	ID          string    `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	TeamName    string    `db:"team_name" json:"team_name"`
	MemberCount int       `db:"member_count" json:"member_count"`
	LeaderName  string    `db:"leader_name" json:"leader_name"`
	LeaderEmail string    `db:"team_lead_email" json:"team_lead_email"`
	LeaderPhone string    `db:"team_lead_phone" json:"team_lead_phone"`
	Marks       *string   `db:"marks" json:"marks"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Event is the subset of an event the access layer needs.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	EventDate   string    `db:"event_date" json:"event_date"`
	Venue       string    `db:"venue" json:"venue"`
	Status      string    `db:"status" json:"status"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventLive      = "live"
	EventCompleted = "completed"
)

func sortedModules(set map[Module]struct{}) []Module {
	out := make([]Module, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
