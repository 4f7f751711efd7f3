package api

import (
	"context"
	"fmt"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// DirectoryAPI is the admin directory: customer accounts and agents.
type DirectoryAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewDirectoryAPI(c *httpapi.Client) *DirectoryAPI {
	return &DirectoryAPI{c: c, v: newPayloadValidator()}
}

// ListUsers returns all customer accounts.
func (d *DirectoryAPI) ListUsers(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := d.c.Get(ctx, "/api/v1/users", &out)
	return out, err
}

// ListAgents returns all agent accounts.
func (d *DirectoryAPI) ListAgents(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := d.c.Get(ctx, "/api/v1/agents", &out)
	return out, err
}

// AgentInput is the create-agent form payload.
type AgentInput struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateAgent provisions a new agent account.
func (d *DirectoryAPI) CreateAgent(ctx context.Context, input AgentInput) (*domain.Account, error) {
	if err := d.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Account
	if err := d.c.Post(ctx, "/api/v1/agents", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN AGENT"`
}

// UpdateRole changes an account's role.
func (d *DirectoryAPI) UpdateRole(ctx context.Context, id int64, role string) (*domain.Account, error) {
	req := updateRoleRequest{Role: role}
	if err := d.v.check(req); err != nil {
		return nil, err
	}
	var out domain.Account
	if err := d.c.Patch(ctx, fmt.Sprintf("/api/v1/users/%d/role", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an account from the directory.
func (d *DirectoryAPI) Delete(ctx context.Context, id int64) error {
	return d.c.Delete(ctx, fmt.Sprintf("/api/v1/users/%d", id))
}
