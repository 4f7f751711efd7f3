package ports

import (
	"context"
	"time"

	"github.com/autobridge/autobridge-go/internal/core/domain"
)

// Broadcast event types written to the broadcast key. The key's value change
// is the signal; its content is not durable state.
const (
	BroadcastLogin  = "LOGIN"
	BroadcastLogout = "LOGOUT"
)

// Broadcast is the payload written to the broadcast key to signal other
// processes sharing the same store.
type Broadcast struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeKind identifies which stored key a watch event refers to.
type ChangeKind int

const (
	// ChangeSession fires when the persisted session blob changed; Session
	// carries the new value (zero value when the blob was cleared).
	ChangeSession ChangeKind = iota
	// ChangeBroadcast fires when the broadcast key changed.
	ChangeBroadcast
)

// Change is a single storage change notification.
type Change struct {
	Kind      ChangeKind
	Session   domain.Session
	Broadcast Broadcast
}

// SessionStorage persists the session across restarts and carries change
// notifications between processes sharing the store. It holds three keys:
// the session blob, a plain copy of the token alone (kept for legacy
// consumers), and the broadcast key.
//
// Load never fails on corrupt data: an unreadable or partial blob is
// reported as a logged-out session.
type SessionStorage interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error

	// Announce rewrites the broadcast key. Watchers in other processes see
	// a ChangeBroadcast; the writing process does not observe its own write.
	Announce(ctx context.Context, b Broadcast) error

	// Watch delivers change notifications until ctx is cancelled. Events
	// originated by this process's own Save/Clear/Announce calls are not
	// delivered back to it.
	Watch(ctx context.Context) (<-chan Change, error)
}
