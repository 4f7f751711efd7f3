package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
)

func newTestStore(t *testing.T, dir, passphrase string) *Store {
	t.Helper()
	s, err := New(Options{
		Dir:          dir,
		Passphrase:   passphrase,
		PollInterval: 20 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func testSession(t *testing.T) domain.Session {
	t.Helper()
	sess, err := domain.NewSession("tok-abc", domain.RoleUser, "u@x.com")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, "")
	sess := testSession(t)

	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same directory simulates a restart.
	restarted := newTestStore(t, dir, "")
	got, err := restarted.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != sess {
		t.Fatalf("round trip mismatch: saved %+v, loaded %+v", sess, got)
	}

	// The legacy token file mirrors the token alone.
	raw, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if string(raw) != sess.Token {
		t.Fatalf("token file holds %q, want %q", raw, sess.Token)
	}
}

func TestStore_LoadMissingIsLoggedOut(t *testing.T) {
	s := newTestStore(t, t.TempDir(), "")
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LoggedIn() {
		t.Fatalf("missing blob must mean logged out, got %+v", got)
	}
}

func TestStore_CorruptBlobIsLoggedOut(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, "")
	if err := os.WriteFile(filepath.Join(dir, sessionFile), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt blob: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt blob must not error: %v", err)
	}
	if got.LoggedIn() {
		t.Fatalf("corrupt blob must mean logged out")
	}
}

func TestStore_PartialBlobIsLoggedOut(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, "")
	// Token present, role/email missing: a manually-edited or half-written
	// blob restores as fully logged out.
	if err := os.WriteFile(filepath.Join(dir, sessionFile), []byte(`{"token":"tok-abc"}`), 0o600); err != nil {
		t.Fatalf("write partial blob: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("partial blob must not error: %v", err)
	}
	if got.LoggedIn() {
		t.Fatalf("partial blob must mean logged out")
	}
}

func TestStore_ClearIdempotent(t *testing.T) {
	s := newTestStore(t, t.TempDir(), "")
	if err := s.Save(context.Background(), testSession(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	got, _ := s.Load(context.Background())
	if got.LoggedIn() {
		t.Fatalf("cleared store must load logged out")
	}
}

func TestStore_EncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, "hunter2")
	sess := testSession(t)
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if len(raw) == 0 || strings.Contains(string(raw), sess.Token) {
		t.Fatalf("token must not appear in plaintext on disk")
	}

	same := newTestStore(t, dir, "hunter2")
	got, err := same.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != sess {
		t.Fatalf("encrypted round trip mismatch: %+v", got)
	}

	// Wrong passphrase degrades to logged out, same as corruption.
	wrong := newTestStore(t, dir, "betray")
	got, err = wrong.Load(context.Background())
	if err != nil {
		t.Fatalf("wrong passphrase must not error: %v", err)
	}
	if got.LoggedIn() {
		t.Fatalf("wrong passphrase must mean logged out")
	}
}

func waitChange(t *testing.T, ch <-chan ports.Change, what string) ports.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ports.Change{}
	}
}

func TestStore_WatchSeesSiblingWrites(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(t, dir, "")
	watcher := newTestStore(t, dir, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	sess := testSession(t)
	if err := writer.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	change := waitChange(t, ch, "session change")
	if change.Kind != ports.ChangeSession || change.Session != sess {
		t.Fatalf("unexpected change: %+v", change)
	}

	if err := writer.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	change = waitChange(t, ch, "session clear")
	if change.Kind != ports.ChangeSession || change.Session.LoggedIn() {
		t.Fatalf("expected logged-out session change, got %+v", change)
	}
}

func TestStore_WatchSeesLogoutBroadcast(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(t, dir, "")
	watcher := newTestStore(t, dir, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := writer.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogout, Timestamp: time.Now()}); err != nil {
		t.Fatalf("announce: %v", err)
	}
	change := waitChange(t, ch, "logout broadcast")
	if change.Kind != ports.ChangeBroadcast || change.Broadcast.Type != ports.BroadcastLogout {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestStore_WatchIgnoresOwnWrites(t *testing.T) {
	s := newTestStore(t, t.TempDir(), "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := s.Save(ctx, testSession(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogin, Timestamp: time.Now()}); err != nil {
		t.Fatalf("announce: %v", err)
	}

	select {
	case change := <-ch:
		t.Fatalf("own writes must not echo back, got %+v", change)
	case <-time.After(200 * time.Millisecond):
	}
}
