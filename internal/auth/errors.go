package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrImmutable marks an operation refused because the target is a super admin.
	ErrImmutable    = errors.New("auth: target is immutable")
	// ErrInvalidToken is the only failure Verify reports.
	ErrInvalidToken = errors.New("invalid token")
)

// Kind classifies access failures.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindForbidden          Kind = "forbidden"
	KindInvalidCredentials Kind = "invalid_credentials"
)

// AccessError is an authentication or authorization failure carrying the message shown to
// the client.
type AccessError struct {
	Kind    Kind
	Message string
}

func (e *AccessError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any AccessError of the same kind, so callers can test against the sentinels
// below regardless of message.
func (e *AccessError) Is(target error) bool {
	var t *AccessError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthenticated    = &AccessError{Kind: KindUnauthenticated, Message: "Authentication required"}
	ErrForbidden          = &AccessError{Kind: KindForbidden, Message: "Access denied"}
	ErrInvalidCredentials = &AccessError{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
)

// Client-visible messages.
const (
	MsgNoToken         = "No token provided"
	MsgInvalidToken    = "Invalid or expired token"
	MsgDeactivated     = "Account is deactivated"
	MsgUserNotFound    = "User not found"
	MsgSuperAdminOnly  = "Super admin access required"
	MsgNotOwner        = "You can only modify your own resources"
	MsgWrongPassword   = "Current password is incorrect"
	MsgNotAssigned     = "You are not assigned to this event"
	msgPermissionStart = "Access denied. Required permission: "
)

func unauthenticated(msg string) error {
	return &AccessError{Kind: KindUnauthenticated, Message: msg}
}

func forbidden(msg string) error {
	return &AccessError{Kind: KindForbidden, Message: msg}
}
