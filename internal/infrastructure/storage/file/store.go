// Package file persists the session under a state directory, the desktop
// analog of the browser's local storage. Three entries are kept: the session
// blob, a plain copy of the token for legacy consumers, and the broadcast
// file whose rewrite signals sibling processes. A polling watcher stands in
// for storage change events.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
)

const (
	sessionFile   = "session.json"
	tokenFile     = "token"
	broadcastFile = "broadcast.json"

	defaultPollInterval = 250 * time.Millisecond
)

// persistedSession is the on-disk layout of the session blob.
type persistedSession struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Store is a file-backed ports.SessionStorage.
type Store struct {
	dir    string
	box    *cipherBox // nil = plaintext at rest
	poll   time.Duration
	logger zerolog.Logger

	mu sync.Mutex
	// last content this process wrote or observed, keyed by filename; the
	// watcher only emits when disk content diverges from these, so a
	// process never sees its own writes echoed back.
	seen map[string][]byte
}

// Options configures a Store.
type Options struct {
	// Dir is the state directory; created if missing.
	Dir string
	// Passphrase enables at-rest encryption of the session blob when
	// non-empty. The token and broadcast files stay plain: the broadcast
	// carries no secrets and the legacy token file predates encryption.
	Passphrase string
	// PollInterval is the watcher's cadence. <= 0 means the default.
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// New creates the state directory and returns a Store.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("file store: dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("file store: create state dir: %w", err)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	s := &Store{
		dir:    opts.Dir,
		poll:   poll,
		logger: opts.Logger,
		seen:   make(map[string][]byte),
	}
	if opts.Passphrase != "" {
		s.box = newCipherBox(opts.Passphrase)
	}

	// Prime the watcher baseline with whatever is already on disk so a
	// fresh Watch does not replay pre-existing state as a change.
	for _, name := range []string{sessionFile, broadcastFile} {
		if raw, err := os.ReadFile(s.path(name)); err == nil {
			s.seen[name] = raw
		}
	}
	return s, nil
}

// Load reads the persisted session. A missing, unreadable, undecryptable or
// partially-populated blob degrades to the logged-out session instead of an
// error: corrupt storage must never block startup.
func (s *Store) Load(ctx context.Context) (domain.Session, error) {
	raw, err := os.ReadFile(s.path(sessionFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("file store: read session: %w", err)
	}
	return s.decode(raw), nil
}

// decode maps raw blob bytes to a session, treating every malformation as
// logged out.
func (s *Store) decode(raw []byte) domain.Session {
	if len(raw) == 0 {
		return domain.Session{}
	}
	if s.box != nil {
		plain, err := s.box.open(raw)
		if err != nil {
			s.logger.Warn().Err(err).Msg("persisted session undecryptable, ignoring")
			return domain.Session{}
		}
		raw = plain
	}
	var p persistedSession
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn().Err(err).Msg("persisted session unparseable, ignoring")
		return domain.Session{}
	}
	sess, err := domain.NewSession(p.Token, p.Role, p.Email)
	if err != nil {
		// Partial triple: storage was tampered with or half-written.
		return domain.Session{}
	}
	return sess
}

// Save persists the session blob and the legacy plain-token file.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(persistedSession{Token: sess.Token, Role: sess.Role, Email: sess.Email})
	if err != nil {
		return fmt.Errorf("file store: encode session: %w", err)
	}
	if s.box != nil {
		if raw, err = s.box.seal(raw); err != nil {
			return fmt.Errorf("file store: encrypt session: %w", err)
		}
	}
	if err := s.writeFile(sessionFile, raw); err != nil {
		return err
	}
	return s.writeFile(tokenFile, []byte(sess.Token))
}

// Clear removes the session blob and token file. Missing files are fine.
func (s *Store) Clear(ctx context.Context) error {
	var firstErr error
	for _, name := range []string{sessionFile, tokenFile} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("file store: remove %s: %w", name, err)
			}
		}
		s.mu.Lock()
		delete(s.seen, name)
		s.mu.Unlock()
	}
	return firstErr
}

// Announce rewrites the broadcast file. The timestamp makes consecutive
// broadcasts of the same type distinct on disk, so each one is observed.
func (s *Store) Announce(ctx context.Context, b ports.Broadcast) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("file store: encode broadcast: %w", err)
	}
	return s.writeFile(broadcastFile, raw)
}

// Watch polls the session and broadcast files and emits a Change whenever
// their content diverges from what this process last wrote or observed.
// The channel closes when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan ports.Change, error) {
	out := make(chan ports.Change, 8)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, change := range s.scan() {
					select {
					case out <- change:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// scan compares on-disk content against the seen cache and builds the
// resulting change events. Broadcast changes are reported before session
// changes: a LOGOUT broadcast must clear state even when the session key's
// own change has not landed yet.
func (s *Store) scan() []ports.Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []ports.Change

	if raw, changed := s.diffLocked(broadcastFile); changed {
		var b ports.Broadcast
		if err := json.Unmarshal(raw, &b); err == nil && b.Type != "" {
			changes = append(changes, ports.Change{Kind: ports.ChangeBroadcast, Broadcast: b})
		}
	}
	if raw, changed := s.diffLocked(sessionFile); changed {
		changes = append(changes, ports.Change{Kind: ports.ChangeSession, Session: s.decode(raw)})
	}
	return changes
}

// diffLocked reads name and reports whether its content differs from the
// seen cache, updating the cache either way. A deleted file reads as nil.
func (s *Store) diffLocked(name string) ([]byte, bool) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		raw = nil
	}
	prev, had := s.seen[name]
	if raw == nil {
		delete(s.seen, name)
		return nil, had && len(prev) > 0
	}
	s.seen[name] = raw
	return raw, !bytes.Equal(prev, raw)
}

// writeFile writes atomically (temp file + rename) and records the content
// in the seen cache so the watcher skips this process's own write.
func (s *Store) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("file store: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: rename %s: %w", name, err)
	}
	s.mu.Lock()
	s.seen[name] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}
