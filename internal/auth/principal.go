package auth

// Principal is the acting identity of one request. It is rebuilt from storage on every
// request and never cached.
type Principal struct {
	ID            string
	Name          string
	Email         string
	Role          Role
	Permissions   map[Module]struct{}
	JuryProfileID string
}

// HasPermission reports whether the principal may use module m.
// Super admins hold every module implicitly. Jury members are never granted module access
// even though their set carries events for display.
func (p *Principal) HasPermission(m Module) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleSuperAdmin:
		return true
	case RoleTeamAdmin:
		_, ok := p.Permissions[m]
		return ok
	default:
		return false
	}
}

// PrincipalSummary is the wire shape of a principal.
type PrincipalSummary struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Role         Role     `json:"role"`
	Permissions  []Module `json:"permissions"`
	JuryMemberID *string  `json:"jury_member_id,omitempty"`
}

// Summary renders the principal for API responses.
func (p *Principal) Summary() PrincipalSummary {
	s := PrincipalSummary{
		ID:          p.ID,
		Username:    p.Name,
		Email:       p.Email,
		Role:        p.Role,
		Permissions: sortedModules(p.Permissions),
	}
	if p.JuryProfileID != "" {
		id := p.JuryProfileID
		s.JuryMemberID = &id
	}
	return s
}

func principalFromAccount(a Account) *Principal {
	return &Principal{
		ID:          a.ID,
		Name:        a.Username,
		Email:       a.Email,
		Role:        a.Role,
		Permissions: a.Permissions.Set(),
	}
}
