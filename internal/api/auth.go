package api

import (
	"context"

	"github.com/autobridge/autobridge-go/internal/core/domain"
	"github.com/autobridge/autobridge-go/internal/infrastructure/httpapi"
)

// AuthAPI performs the login exchange. It implements ports.AuthExchange for
// the session manager.
type AuthAPI struct {
	c *httpapi.Client
	v *payloadValidator
}

func NewAuthAPI(c *httpapi.Client) *AuthAPI {
	return &AuthAPI{c: c, v: newPayloadValidator()}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Login exchanges credentials for a session. A 2xx response missing any of
// token, role or email fails with domain.ErrMalformedResponse; backend
// rejections and transport failures propagate as-is for inline display.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (domain.Session, error) {
	req := loginRequest{Email: email, Password: password}
	if err := a.v.check(req); err != nil {
		return domain.Session{}, err
	}

	var resp loginResponse
	if err := a.c.Post(ctx, "/api/v1/auth/login", req, &resp); err != nil {
		return domain.Session{}, err
	}
	return domain.NewSession(resp.Token, resp.Role, resp.Email)
}
