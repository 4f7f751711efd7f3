package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
	RoleAgent = "AGENT"
)

// ValidRole reports whether s is one of the closed role set.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin || s == RoleAgent
}

// Session is the authenticated principal for this process. The zero value is
// the logged-out state. A populated session always carries token, role and
// email together; NewSession rejects partial triples so a half-populated
// session is unrepresentable in memory.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// NewSession builds a logged-in session. All three fields must be non-empty
// and the role must be a known one; anything else yields ErrMalformedResponse.
func NewSession(token, role, email string) (Session, error) {
	if token == "" || role == "" || email == "" {
		return Session{}, ErrMalformedResponse
	}
	if !ValidRole(role) {
		return Session{}, ErrMalformedResponse
	}
	return Session{Token: token, Role: role, Email: email}, nil
}

// LoggedIn reports whether the session holds a credential.
func (s Session) LoggedIn() bool {
	return s.Token != "" && s.Role != "" && s.Email != ""
}

// Expiry returns the token's expiry time when the token is a three-segment
// compact token with a numeric exp claim. Malformed tokens, or tokens without
// a decodable exp, report ok=false: such sessions have no known expiry and
// are never auto-logged-out locally (the backend's 401 is the backstop).
func (s Session) Expiry() (time.Time, bool) {
	return TokenExpiry(s.Token)
}

// TokenExpiry decodes the exp claim out of a compact token without verifying
// the signature. The client has no key material; it only reads the claim to
// schedule local logout ahead of the server's own expiry check.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
