package ports

import (
	"context"

	"github.com/autobridge/autobridge-go/internal/core/domain"
)

// AuthExchange performs the login exchange against the backend. Implemented
// by the HTTP layer; the session manager only sees this port.
type AuthExchange interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
}

// SessionManager is the single source of truth for "who is logged in".
type SessionManager interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Current() domain.Session
	Token() string
}
