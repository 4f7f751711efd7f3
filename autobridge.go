// Package autobridge is the Go client for the Autobridge vehicle-service
// booking platform. It bundles the session manager (restore, login, expiry
// scheduling, cross-process sync), the authenticating HTTP transport, the
// navigation guard, and the typed resource clients.
package autobridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/api"
	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/core/ports"
	"github.com/autobridge/autobridge-go/internal/core/service"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
	filestore "github.com/autobridge/autobridge-go/internal/infrastructure/storage/file"
	redisstore "github.com/autobridge/autobridge-go/internal/infrastructure/storage/redis"
	"github.com/autobridge/autobridge-go/internal/pkg/config"
	"github.com/autobridge/autobridge-go/pkg/logger"
)

// Role and guard decisions re-exported for embedders.
const (
	RoleUser  = domain.RoleUser
	RoleAdmin = domain.RoleAdmin
	RoleAgent = domain.RoleAgent
)

const (
	Allow         = service.Allow
	RedirectLogin = service.RedirectLogin
	RedirectHome  = service.RedirectHome
)

// Client is a fully wired Autobridge client. Construct with New, then call
// Close when done.
type Client struct {
	Session   *service.SessionService
	Auth      *api.AuthAPI
	Services  *api.ServicesAPI
	Vehicles  *api.VehiclesAPI
	Requests  *api.RequestsAPI
	Feedback  *api.FeedbackAPI
	Directory *api.DirectoryAPI

	transport *httpapi.Client
	cancel    context.CancelFunc
	log       zerolog.Logger
}

// New builds a Client from configuration: resolves the API base URL, picks
// the session store (Redis when configured, the file store otherwise),
// restores any persisted session, and starts the storage watch loop.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	log := logger.Init(logger.Options{Level: cfg.LogLevel})

	fileCfg, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	base := httpapi.ResolveBaseURL(cfg.APIBaseURL, fileCfg.APIBaseURL)

	var storage ports.SessionStorage
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("autobridge: %w", err)
		}
		storage = redisstore.NewStore(rdb, log)
	} else {
		storage, err = filestore.New(filestore.Options{
			Dir:        cfg.StateDir,
			Passphrase: cfg.StateKey,
			Logger:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("autobridge: %w", err)
		}
	}

	// The transport needs a token source and the session manager needs the
	// transport (for the login exchange); the session manager is built
	// first and handed to the transport, then the auth client closes the
	// loop through the exchange port.
	session := service.NewSessionService(nil, storage, cfg.SessionSkew, log)
	transport := httpapi.NewClient(base, session, cfg.RequestTimeout, log)
	transport.OnUnauthorized(session.HandleUnauthorized)

	auth := api.NewAuthAPI(transport)
	session.SetExchange(auth)

	if err := session.Restore(ctx); err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	if err := session.Start(watchCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("autobridge: %w", err)
	}

	return &Client{
		Session:   session,
		Auth:      auth,
		Services:  api.NewServicesAPI(transport),
		Vehicles:  api.NewVehiclesAPI(transport),
		Requests:  api.NewRequestsAPI(transport),
		Feedback:  api.NewFeedbackAPI(transport),
		Directory: api.NewDirectoryAPI(transport),
		transport: transport,
		cancel:    cancel,
		log:       log,
	}, nil
}

// Guard evaluates navigation to a view against the current session.
func (c *Client) Guard(permittedRoles ...string) service.GuardDecision {
	return service.Guard(c.Session.Current(), permittedRoles...)
}

// Close stops the storage watch loop. The session itself stays persisted.
func (c *Client) Close() {
	c.cancel()
}
