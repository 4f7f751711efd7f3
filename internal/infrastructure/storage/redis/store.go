// Package redis persists the session in Redis for deployments where several
// hosts (kiosks, support consoles) must share one login. Change fan-out uses
// pub/sub instead of the file store's polling; each store instance tags its
// messages with an origin id so it never reacts to its own writes.
package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
)

const (
	sessionKey   = "autobridge:session"
	tokenKey     = "autobridge:token"
	eventChannel = "autobridge:events"

	defaultDialTimeout = 5 * time.Second
)

// Config locates the Redis instance the session stores share. TLS is optional
// but expected for anything beyond a local deployment: the session blob holds
// a live bearer token.
type Config struct {
	Addr        string
	Password    string
	DB          int
	TLS         *tls.Config
	DialTimeout time.Duration
}

// Connect dials Redis and verifies the session keyspace is reachable with a
// ping before any store is built on the client. A DialTimeout <= 0 falls back
// to defaultDialTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: cfg.TLS,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis session store: ping: %w", err)
	}

	return client, nil
}

// persistedSession mirrors the file store's on-disk layout.
type persistedSession struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// event is the pub/sub envelope. Exactly one of Session/Broadcast is set,
// per Kind.
type event struct {
	Origin    string           `json:"origin"`
	Kind      string           `json:"kind"` // "session" or "broadcast"
	Session   persistedSession `json:"session,omitempty"`
	Broadcast ports.Broadcast  `json:"broadcast,omitempty"`
}

// Store is a Redis-backed ports.SessionStorage.
type Store struct {
	client *redis.Client
	origin string
	logger zerolog.Logger
}

// NewStore wraps an established Redis client.
func NewStore(client *redis.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Load reads the persisted session. A missing key or an unparseable/partial
// blob degrades to logged-out.
func (s *Store) Load(ctx context.Context) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("redis store: load session: %w", err)
	}
	return decode(raw, s.logger), nil
}

func decode(raw []byte, logger zerolog.Logger) domain.Session {
	var p persistedSession
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Warn().Err(err).Msg("persisted session unparseable, ignoring")
		return domain.Session{}
	}
	sess, err := domain.NewSession(p.Token, p.Role, p.Email)
	if err != nil {
		return domain.Session{}
	}
	return sess
}

// Save persists the session and publishes the change to sibling stores.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	p := persistedSession{Token: sess.Token, Role: sess.Role, Email: sess.Email}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis store: encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis store: save session: %w", err)
	}
	if err := s.client.Set(ctx, tokenKey, sess.Token, 0).Err(); err != nil {
		return fmt.Errorf("redis store: save token: %w", err)
	}
	return s.publish(ctx, event{Kind: "session", Session: p})
}

// Clear removes the session keys and publishes the (now empty) session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey, tokenKey).Err(); err != nil {
		return fmt.Errorf("redis store: clear: %w", err)
	}
	return s.publish(ctx, event{Kind: "session"})
}

// Announce publishes a broadcast to sibling stores.
func (s *Store) Announce(ctx context.Context, b ports.Broadcast) error {
	return s.publish(ctx, event{Kind: "broadcast", Broadcast: b})
}

func (s *Store) publish(ctx context.Context, e event) error {
	e.Origin = s.origin
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis store: encode event: %w", err)
	}
	if err := s.client.Publish(ctx, eventChannel, raw).Err(); err != nil {
		return fmt.Errorf("redis store: publish: %w", err)
	}
	return nil
}

// Watch subscribes to the event channel and converts messages from other
// store instances into change notifications. The channel closes when ctx is
// cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan ports.Change, error) {
	sub := s.client.Subscribe(ctx, eventChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis store: subscribe: %w", err)
	}

	out := make(chan ports.Change, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					s.logger.Warn().Err(err).Msg("undecodable session event, skipping")
					continue
				}
				if e.Origin == s.origin {
					continue
				}
				change, ok := s.toChange(e)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) toChange(e event) (ports.Change, bool) {
	switch e.Kind {
	case "session":
		sess, err := domain.NewSession(e.Session.Token, e.Session.Role, e.Session.Email)
		if err != nil {
			sess = domain.Session{}
		}
		return ports.Change{Kind: ports.ChangeSession, Session: sess}, true
	case "broadcast":
		if e.Broadcast.Type == "" {
			return ports.Change{}, false
		}
		return ports.Change{Kind: ports.ChangeBroadcast, Broadcast: e.Broadcast}, true
	}
	return ports.Change{}, false
}
