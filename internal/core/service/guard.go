package service

import "github.com/autobridge/autobridge-go/internal/core/domain"

// GuardDecision is the outcome of evaluating a navigation against the
// current session.
type GuardDecision int

const (
	// Allow renders the guarded view.
	Allow GuardDecision = iota
	// RedirectLogin sends an unauthenticated principal to the login view.
	RedirectLogin
	// RedirectHome sends an authenticated but unpermitted principal to the
	// default view.
	RedirectHome
)

// Guard gates navigation to role-scoped views. It is a pure function of the
// session snapshot and the view's permitted roles; callers re-evaluate it on
// every navigation and on every session change.
//
// An empty permittedRoles list means the view only requires authentication.
// A partial session (possible only if storage was tampered with) counts as
// logged out.
func Guard(sess domain.Session, permittedRoles ...string) GuardDecision {
	if !sess.LoggedIn() {
		return RedirectLogin
	}
	if len(permittedRoles) == 0 {
		return Allow
	}
	for _, r := range permittedRoles {
		if sess.Role == r {
			return Allow
		}
	}
	return RedirectHome
}
