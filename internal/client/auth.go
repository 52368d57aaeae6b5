package client

import (
	"context"
	"net/http"

	"github.com/stitchline/stitchline-erp/internal/auth"
)

type userEnvelope struct {
	User auth.User `json:"user"`
}

// Login exchanges credentials for a bearer token. It does not store the token.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.LoginResponse, error) {
	var out auth.LoginResponse
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   auth.LoginRequest{Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a login for an existing employee.
func (c *Client) Register(ctx context.Context, in auth.RegisterRequest) (*auth.User, error) {
	var out userEnvelope
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/auth/register", body: in}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Me returns the user owning the current token.
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var out userEnvelope
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}
