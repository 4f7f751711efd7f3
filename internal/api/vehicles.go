package api

import (
	"context"
	"fmt"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// VehiclesAPI covers the vehicle inventory: public browsing plus admin CRUD.
type VehiclesAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewVehiclesAPI(c *httpapi.Client) *VehiclesAPI {
	return &VehiclesAPI{c: c, v: newPayloadValidator()}
}

// ListPublic fetches the browsable inventory without credentials.
func (v *VehiclesAPI) ListPublic(ctx context.Context) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	err := v.c.GetFirst(ctx, []string{
		"/api/v1/vehicles/public",
		"/api/v1/vehicles/available",
	}, &out)
	return out, err
}

// List fetches the full inventory, including unavailable vehicles (admin).
func (v *VehiclesAPI) List(ctx context.Context) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	err := v.c.Get(ctx, "/api/v1/vehicles", &out)
	return out, err
}

// Get fetches a single vehicle by id.
func (v *VehiclesAPI) Get(ctx context.Context, id int64) (*domain.Vehicle, error) {
	var out domain.Vehicle
	if err := v.c.Get(ctx, fmt.Sprintf("/api/v1/vehicles/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VehicleInput is the create/update form payload.
type VehicleInput struct {
	Make      string  `json:"make"  validate:"required"`
	Model     string  `json:"model" validate:"required"`
	Year      int     `json:"year"  validate:"gte=1950"`
	Price     float64 `json:"price,omitempty" validate:"gte=0"`
	ImagePath string  `json:"image_path,omitempty"`
	Available bool    `json:"available"`
}

// Create adds a vehicle to the inventory.
func (v *VehiclesAPI) Create(ctx context.Context, input VehicleInput) (*domain.Vehicle, error) {
	if err := v.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Vehicle
	if err := v.c.Post(ctx, "/api/v1/vehicles", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a vehicle entry.
func (v *VehiclesAPI) Update(ctx context.Context, id int64, input VehicleInput) (*domain.Vehicle, error) {
	if err := v.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Vehicle
	if err := v.c.Put(ctx, fmt.Sprintf("/api/v1/vehicles/%d", id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a vehicle from the inventory.
func (v *VehiclesAPI) Delete(ctx context.Context, id int64) error {
	return v.c.Delete(ctx, fmt.Sprintf("/api/v1/vehicles/%d", id))
}
