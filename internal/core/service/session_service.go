package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/api/metrics"
	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
)

// DefaultSkew is subtracted from the token's expiry when arming the
// auto-logout timer, so the local session ends slightly before the backend
// would start rejecting the token.
const DefaultSkew = 5 * time.Second

// SessionService owns the in-process session: it restores persisted state,
// performs the login exchange, schedules automatic logout ahead of token
// expiry, and keeps the state consistent with other processes sharing the
// same storage.
//
// State is only ever replaced wholesale under the mutex, never mutated
// field-by-field, so readers always observe either a full session or none.
type SessionService struct {
	exchange ports.AuthExchange
	storage  ports.SessionStorage
	skew     time.Duration
	logger   zerolog.Logger

	now func() time.Time

	mu      sync.Mutex
	current domain.Session
	timer   *time.Timer
}

// NewSessionService wires the session manager to its login exchange and
// storage backend. A skew <= 0 falls back to DefaultSkew. The exchange may
// be nil at construction and supplied later with SetExchange: the transport
// needs this manager as its token source before the auth client exists.
func NewSessionService(exchange ports.AuthExchange, storage ports.SessionStorage, skew time.Duration, logger zerolog.Logger) *SessionService {
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &SessionService{
		exchange: exchange,
		storage:  storage,
		skew:     skew,
		logger:   logger,
		now:      time.Now,
	}
}

// SetExchange completes the construction cycle described on
// NewSessionService. Call before the first Login.
func (s *SessionService) SetExchange(exchange ports.AuthExchange) {
	s.exchange = exchange
}

// Restore loads the persisted session, if any. Corrupt or partial stored
// state degrades to logged-out; Restore never fails because of it. A restored
// session that is already inside the skew window is discarded immediately.
func (s *SessionService) Restore(ctx context.Context) error {
	sess, err := s.storage.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session restore failed, starting logged out")
		sess = domain.Session{}
	}

	s.mu.Lock()
	s.current = sess
	expired := s.armTimerLocked(sess)
	s.mu.Unlock()

	if expired {
		s.clearEverywhere(ctx, "expired")
	}
	return nil
}

// Login runs the backend exchange and, on success, replaces the session,
// persists it, announces it to sibling processes, and arms the auto-logout
// timer. A success response missing token, role or email rejects with
// domain.ErrMalformedResponse and leaves the state untouched. Backend and
// transport failures propagate as-is; there is no retry here.
func (s *SessionService) Login(ctx context.Context, email, password string) error {
	if s.exchange == nil {
		return errors.New("session: no login exchange configured")
	}
	sess, err := s.exchange.Login(ctx, email, password)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, domain.ErrMalformedResponse) {
			outcome = "malformed"
		}
		metrics.LoginsTotal.WithLabelValues(outcome).Inc()
		return err
	}
	if !sess.LoggedIn() {
		metrics.LoginsTotal.WithLabelValues("malformed").Inc()
		return domain.ErrMalformedResponse
	}

	if err := s.storage.Save(ctx, sess); err != nil {
		return err
	}
	if err := s.storage.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogin, Timestamp: s.now()}); err != nil {
		s.logger.Warn().Err(err).Msg("login broadcast failed")
	}

	s.mu.Lock()
	s.current = sess
	expired := s.armTimerLocked(sess)
	s.mu.Unlock()

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().Str("email", sess.Email).Str("role", sess.Role).Msg("logged in")

	if expired {
		// Token was already inside the skew window when it arrived.
		s.clearEverywhere(ctx, "expired")
	}
	return nil
}

// Logout clears the session everywhere: memory, storage, and sibling
// processes via the LOGOUT broadcast. Idempotent.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasIn := s.current.LoggedIn()
	s.current = domain.Session{}
	s.stopTimerLocked()
	s.mu.Unlock()

	err := s.storage.Clear(ctx)
	if aerr := s.storage.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogout, Timestamp: s.now()}); aerr != nil {
		s.logger.Warn().Err(aerr).Msg("logout broadcast failed")
	}
	if wasIn {
		s.logger.Info().Msg("logged out")
	}
	return err
}

// Current returns a snapshot of the session state.
func (s *SessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the current bearer token, or "" when logged out. The
// transport calls this on every authenticated request.
func (s *SessionService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

// Revalidate reloads the persisted session, re-checks its expiry against the
// clock, and logs out if it has already passed. Call after the process resumes
// from suspend: timers do not fire while suspended, so the armed auto-logout
// may be stale, and a sibling may have replaced the session while the watch
// loop was frozen. A reload failure falls back to the in-memory state.
func (s *SessionService) Revalidate(ctx context.Context) {
	sess, err := s.storage.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session reload failed, revalidating in-memory state")
		sess = s.Current()
	}

	s.mu.Lock()
	s.current = sess
	expired := s.armTimerLocked(sess)
	s.mu.Unlock()

	if expired {
		s.clearEverywhere(ctx, "expired")
	}
}

// HandleUnauthorized is registered with the transport's unauthorized observer
// list. Any 401/403 from the backend invalidates the local session.
func (s *SessionService) HandleUnauthorized(status int, body []byte) {
	s.logger.Warn().Int("status", status).Msg("authorization failure, clearing session")
	metrics.AutoLogoutsTotal.WithLabelValues("unauthorized").Inc()
	s.clearEverywhere(context.Background(), "")
}

// Start launches the storage watch loop. Changes to the session key are
// adopted wholesale (including a cleared session); a LOGOUT broadcast clears
// the in-memory state immediately regardless of the session key's content,
// which covers the race where the broadcast lands before the key clear does.
// The loop stops when ctx is cancelled.
func (s *SessionService) Start(ctx context.Context) error {
	changes, err := s.storage.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				s.apply(change)
			}
		}
	}()
	return nil
}

func (s *SessionService) apply(change ports.Change) {
	switch change.Kind {
	case ports.ChangeSession:
		s.mu.Lock()
		s.current = change.Session
		expired := s.armTimerLocked(change.Session)
		s.mu.Unlock()
		if expired {
			s.clearEverywhere(context.Background(), "expired")
		}
	case ports.ChangeBroadcast:
		if change.Broadcast.Type != ports.BroadcastLogout {
			return
		}
		metrics.AutoLogoutsTotal.WithLabelValues("broadcast").Inc()
		s.mu.Lock()
		s.current = domain.Session{}
		s.stopTimerLocked()
		s.mu.Unlock()
	}
}

// armTimerLocked replaces the auto-logout timer for sess. It returns true
// when the token is already within the skew window, in which case the caller
// must clear the session instead of waiting for a timer. Tokens without a
// decodable exp claim get no timer: the backend's 401 is the only backstop.
func (s *SessionService) armTimerLocked(sess domain.Session) (alreadyExpired bool) {
	s.stopTimerLocked()
	if !sess.LoggedIn() {
		return false
	}
	expiry, ok := sess.Expiry()
	if !ok {
		return false
	}
	d := expiry.Sub(s.now()) - s.skew
	if d <= 0 {
		return true
	}
	s.timer = time.AfterFunc(d, s.onExpiry)
	return false
}

func (s *SessionService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *SessionService) onExpiry() {
	s.logger.Info().Msg("token expiring, logging out")
	metrics.AutoLogoutsTotal.WithLabelValues("expired").Inc()
	s.clearEverywhere(context.Background(), "")
}

// clearEverywhere clears memory, storage, and broadcasts LOGOUT. Storage
// failures are logged, not propagated: a forced logout must always leave the
// process logged out.
func (s *SessionService) clearEverywhere(ctx context.Context, cause string) {
	if cause != "" {
		metrics.AutoLogoutsTotal.WithLabelValues(cause).Inc()
	}
	s.mu.Lock()
	s.current = domain.Session{}
	s.stopTimerLocked()
	s.mu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("session clear failed")
	}
	if err := s.storage.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogout, Timestamp: s.now()}); err != nil {
		s.logger.Warn().Err(err).Msg("logout broadcast failed")
	}
}
