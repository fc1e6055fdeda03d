/**
 * @description
 * Authentication endpoints. Login exchanges admin credentials for an access
 * token (and optionally a refresh token); Refresh trades a refresh token for
 * a fresh access token. Token persistence is the session package's concern,
 * not the client's.
 */

package marketplace

import (
	"context"
	"net/http"

	"github.com/giftmart/console-service/internal/domain"
)

// Login authenticates against the backend and returns the issued tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	req := domain.LoginRequest{Email: email, Password: password}
	var resp domain.LoginResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/account/login/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	req := struct {
		Refresh string `json:"refresh"`
	}{Refresh: refreshToken}
	var resp domain.LoginResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/refresh/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
