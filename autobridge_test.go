package autobridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/autobridge/autobridge-go/internal/pkg/config"
)

// newBackend stubs the slice of the Autobridge API these tests touch.
func newBackend(t *testing.T, tokenTTL time.Duration) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.HideBanner = true
	e.POST("/api/v1/auth/login", func(c echo.Context) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.Bind(&body); err != nil || body.Password != "good" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		claims := jwt.MapClaims{"exp": time.Now().Add(tokenTTL).Unix(), "role": RoleUser}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{
			"token": token,
			"role":  RoleUser,
			"email": body.Email,
		})
	})
	e.GET("/api/v1/vehicles/public", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []map[string]any{{"id": 1, "make": "Toyota", "model": "Hilux", "year": 2021, "available": true}})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		APIBaseURL:     baseURL,
		StateDir:       t.TempDir(),
		LogLevel:       "error",
		RequestTimeout: 5 * time.Second,
		SessionSkew:    1900 * time.Millisecond,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestClient_LoginThenAutomaticExpiry(t *testing.T) {
	srv := newBackend(t, 3*time.Second)
	client, err := New(context.Background(), testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := client.Session.Login(context.Background(), "u@x.com", "good"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	sess := client.Session.Current()
	if sess.Token == "" || sess.Role != RoleUser || sess.Email != "u@x.com" {
		t.Fatalf("expected full session after login, got %+v", sess)
	}

	// The token expires in ~3s and the skew is 1.9s: the session must be
	// cleared automatically with no further activity.
	waitFor(t, "automatic expiry logout", func() bool { return !client.Session.Current().LoggedIn() })
}

func TestClient_GuardDecisions(t *testing.T) {
	srv := newBackend(t, time.Hour)
	client, err := New(context.Background(), testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if got := client.Guard(RoleAdmin); got != RedirectLogin {
		t.Fatalf("logged out: expected RedirectLogin, got %v", got)
	}
	if err := client.Session.Login(context.Background(), "u@x.com", "good"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := client.Guard(RoleAdmin); got != RedirectHome {
		t.Fatalf("USER on admin view: expected RedirectHome, got %v", got)
	}
	if got := client.Guard(RoleUser, RoleAgent); got != Allow {
		t.Fatalf("USER on user view: expected Allow, got %v", got)
	}
}

func TestClient_PublicBrowsingWorksLoggedOut(t *testing.T) {
	srv := newBackend(t, time.Hour)
	client, err := New(context.Background(), testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	vehicles, err := client.Vehicles.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("public browse failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].Make != "Toyota" {
		t.Fatalf("unexpected inventory: %+v", vehicles)
	}
}

func TestClient_LogoutPropagatesAcrossProcesses(t *testing.T) {
	srv := newBackend(t, time.Hour)
	cfg := testConfig(t, srv.URL)

	// Two clients over one state dir stand in for two browser tabs.
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client a: %v", err)
	}
	defer a.Close()
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client b: %v", err)
	}
	defer b.Close()

	if err := a.Session.Login(context.Background(), "u@x.com", "good"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	waitFor(t, "login to reach the sibling", func() bool { return b.Session.Current().LoggedIn() })

	if err := a.Session.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	waitFor(t, "logout to reach the sibling", func() bool { return !b.Session.Current().LoggedIn() })
}
