package recova

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Login exchanges credentials for an access token. The core expects the
// OAuth2 password form: application/x-www-form-urlencoded with username and
// password fields.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "Recova.Login")
	defer span.End()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	body, err := c.send(ctx, "auth", "login", http.MethodPost, "auth/login", "",
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp domain.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, &domain.ErrFormat{Resource: "auth"}
	}
	return &resp, nil
}

// Me resolves the profile behind a bearer token.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Recova.Me")
	defer span.End()

	body, err := c.get(ctx, "auth", "me", "auth/me", token)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}
