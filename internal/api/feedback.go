package api

import (
	"context"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// FeedbackAPI lets customers rate completed requests and admins review the
// ratings.
type FeedbackAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewFeedbackAPI(c *httpapi.Client) *FeedbackAPI {
	return &FeedbackAPI{c: c, v: newPayloadValidator()}
}

// FeedbackInput is the rating form payload.
type FeedbackInput struct {
	RequestID int64  `json:"request_id" validate:"required,gt=0"`
	Rating    int    `json:"rating"     validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment,omitempty"`
}

// Submit posts a rating for a completed request.
func (f *FeedbackAPI) Submit(ctx context.Context, input FeedbackInput) (*domain.Feedback, error) {
	if err := f.v.check(input); err != nil {
		return nil, err
	}
	var out domain.Feedback
	if err := f.c.Post(ctx, "/api/v1/feedback", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns all feedback entries (admin).
func (f *FeedbackAPI) List(ctx context.Context) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := f.c.Get(ctx, "/api/v1/feedback", &out)
	return out, err
}
