package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// RequestsAPI covers the service-request lifecycle: booking, the agent work
// queue, and the admin assignment surface. Every transition is checked
// against the advisory client-side state machine before the call goes out,
// so a stale view fails fast; the backend remains the authority and may
// still reject what the client believed was legal.
type RequestsAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewRequestsAPI(c *httpapi.Client) *RequestsAPI {
	return &RequestsAPI{c: c, v: newPayloadValidator()}
}

// BookingInput is the customer booking form.
type BookingInput struct {
	ServiceID int64  `json:"service_id" validate:"required,gt=0"`
	VehicleID int64  `json:"vehicle_id,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type createBookingRequest struct {
	BookingInput
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateBooking submits a new service request. A client-generated
// idempotency key lets the backend collapse an accidental double submit
// (the form's button can be clicked twice before the first response lands).
func (r *RequestsAPI) CreateBooking(ctx context.Context, input BookingInput) (*domain.ServiceRequest, error) {
	if err := r.v.check(input); err != nil {
		return nil, err
	}
	req := createBookingRequest{BookingInput: input, IdempotencyKey: uuid.NewString()}
	var out domain.ServiceRequest
	if err := r.c.Post(ctx, "/api/v1/requests", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMine returns the calling customer's own requests.
func (r *RequestsAPI) ListMine(ctx context.Context) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := r.c.Get(ctx, "/api/v1/requests/my", &out)
	return out, err
}

// ListAll returns every request (admin dashboard).
func (r *RequestsAPI) ListAll(ctx context.Context) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := r.c.Get(ctx, "/api/v1/requests", &out)
	return out, err
}

// Queue returns the calling agent's assignment queue.
func (r *RequestsAPI) Queue(ctx context.Context) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := r.c.Get(ctx, "/api/v1/requests/assigned", &out)
	return out, err
}

// Get fetches a single request by id.
func (r *RequestsAPI) Get(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	var out domain.ServiceRequest
	if err := r.c.Get(ctx, fmt.Sprintf("/api/v1/requests/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type assignRequest struct {
	AgentID int64 `json:"agent_id" validate:"required,gt=0"`
}

// Assign hands a pending request to an agent (admin).
func (r *RequestsAPI) Assign(ctx context.Context, req domain.ServiceRequest, agentID int64) (*domain.ServiceRequest, error) {
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: cannot assign a %s request", domain.ErrInvalidTransition, req.Status)
	}
	return r.transition(ctx, req.ID, "assign", assignRequest{AgentID: agentID})
}

// Reassign moves an already-assigned request to a different agent (admin).
func (r *RequestsAPI) Reassign(ctx context.Context, req domain.ServiceRequest, agentID int64) (*domain.ServiceRequest, error) {
	if req.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot reassign a %s request", domain.ErrInvalidTransition, req.Status)
	}
	return r.transition(ctx, req.ID, "reassign", assignRequest{AgentID: agentID})
}

// Start marks an assigned request as in progress (agent).
func (r *RequestsAPI) Start(ctx context.Context, req domain.ServiceRequest) (*domain.ServiceRequest, error) {
	if !req.Status.CanTransitionTo(domain.StatusInProgress) {
		return nil, fmt.Errorf("%w: cannot start a %s request", domain.ErrInvalidTransition, req.Status)
	}
	return r.transition(ctx, req.ID, "start", nil)
}

// Complete marks an in-progress request as completed (agent).
func (r *RequestsAPI) Complete(ctx context.Context, req domain.ServiceRequest) (*domain.ServiceRequest, error) {
	if !req.Status.CanTransitionTo(domain.StatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete a %s request", domain.ErrInvalidTransition, req.Status)
	}
	return r.transition(ctx, req.ID, "complete", nil)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel moves a non-terminal request to CANCELLED, with an optional
// free-text reason. CANCELLED is absorbing: there is no way back.
func (r *RequestsAPI) Cancel(ctx context.Context, req domain.ServiceRequest, reason string) (*domain.ServiceRequest, error) {
	if !req.Status.CanTransitionTo(domain.StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s request", domain.ErrInvalidTransition, req.Status)
	}
	return r.transition(ctx, req.ID, "cancel", cancelRequest{Reason: reason})
}

func (r *RequestsAPI) transition(ctx context.Context, id int64, action string, body any) (*domain.ServiceRequest, error) {
	if body != nil {
		if err := r.v.check(body); err != nil {
			return nil, err
		}
	}
	var out domain.ServiceRequest
	if err := r.c.Post(ctx, fmt.Sprintf("/api/v1/requests/%d/%s", id, action), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
