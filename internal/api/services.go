package api

import (
	"context"
	"fmt"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// ServicesAPI covers the service catalog: public browsing plus the admin
// CRUD surface.
type ServicesAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewServicesAPI(c *httpapi.Client) *ServicesAPI {
	return &ServicesAPI{c: c, v: newPayloadValidator()}
}

// ListPublic fetches the public service catalog. The route moved between
// backend revisions, so both spellings are tried in order; the public path
// goes first because it needs no credentials.
func (s *ServicesAPI) ListPublic(ctx context.Context) ([]domain.Service, error) {
	var out []domain.Service
	err := s.c.GetFirst(ctx, []string{
		"/api/v1/services/public",
		"/api/v1/services",
	}, &out)
	return out, err
}

// Get fetches a single service by id.
func (s *ServicesAPI) Get(ctx context.Context, id int64) (*domain.Service, error) {
	var out domain.Service
	if err := s.c.Get(ctx, fmt.Sprintf("/api/v1/services/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServiceInput is the create/update form payload.
type ServiceInput struct {
	Name        string  `json:"name"        validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"gte=0"`
	DurationMin int     `json:"duration_minutes,omitempty" validate:"gte=0"`
	Active      bool    `json:"active"`
}

// Create adds a service to the catalog (admin only; the backend enforces it).
func (s *ServicesAPI) Create(ctx context.Context, input ServiceInput) (*domain.Service, error) {
	if err := s.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Service
	if err := s.c.Post(ctx, "/api/v1/services", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a service definition.
func (s *ServicesAPI) Update(ctx context.Context, id int64, input ServiceInput) (*domain.Service, error) {
	if err := s.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Service
	if err := s.c.Put(ctx, fmt.Sprintf("/api/v1/services/%d", id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a service from the catalog.
func (s *ServicesAPI) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, fmt.Sprintf("/api/v1/services/%d", id))
}
