package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
)

// newTestStore connects to the Redis named by REDIS_ADDR, or skips: these
// are integration tests for deployments that share a session across hosts.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis store tests")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("redis unreachable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		_ = client.Del(context.Background(), sessionKey, tokenKey).Err()
		_ = client.Close()
	})
	return NewStore(client, zerolog.Nop())
}

func TestConnect_UnreachableServer(t *testing.T) {
	// Port 1 is never a Redis server; the ping must fail within the dial
	// timeout and surface as a store error, not hang.
	_, err := Connect(context.Background(), Config{
		Addr:        "127.0.0.1:1",
		DialTimeout: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatalf("expected connect to an unreachable server to fail")
	}
	if !strings.Contains(err.Error(), "redis session store") {
		t.Fatalf("error must identify the session store, got %v", err)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	sess, err := domain.NewSession("tok-abc", domain.RoleAdmin, "admin@x.com")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != sess {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = s.Load(context.Background())
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if got.LoggedIn() {
		t.Fatalf("cleared store must load logged out")
	}
}

func TestStore_WatchSeesSiblingEventsNotOwn(t *testing.T) {
	writer := newTestStore(t)
	watcher := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherCh, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	writerCh, err := writer.Watch(ctx)
	if err != nil {
		t.Fatalf("writer watch: %v", err)
	}

	if err := writer.Announce(ctx, ports.Broadcast{Type: ports.BroadcastLogout, Timestamp: time.Now()}); err != nil {
		t.Fatalf("announce: %v", err)
	}

	select {
	case change := <-watcherCh:
		if change.Kind != ports.ChangeBroadcast || change.Broadcast.Type != ports.BroadcastLogout {
			t.Fatalf("unexpected change: %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for sibling broadcast")
	}

	select {
	case change := <-writerCh:
		t.Fatalf("writer must not see its own event, got %+v", change)
	case <-time.After(200 * time.Millisecond):
	}
}
