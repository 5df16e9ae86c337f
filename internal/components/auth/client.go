package auth

import (
	"context"

	"github.com/andrasnagy-data/authform/internal/shared/request"
)

const (
	signInPath = "/users/login"
	signUpPath = "/users"
)

type (
	poster interface {
		Post(ctx context.Context, path string, body any) (*request.Response, error)
	}

	Client struct {
		request poster
	}
)

func NewClient(rc *request.Client) *Client {
	return &Client{request: rc}
}

// SignIn creates a session; the outcome is returned as-is
func (c *Client) SignIn(ctx context.Context, credentials Credentials) (*request.Response, error) {
	return c.request.Post(ctx, signInPath, userEnvelope[Credentials]{User: credentials})
}

// SignUp creates an account; the outcome is returned as-is
func (c *Client) SignUp(ctx context.Context, registration Registration) (*request.Response, error) {
	return c.request.Post(ctx, signUpPath, userEnvelope[Registration]{User: registration})
}
