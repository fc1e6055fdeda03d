/**
 * @description
 * User and identity-upgrade endpoints of the marketplace admin API. Upgrade
 * approval and rejection are id-addressed POSTs with empty bodies; the level
 * selects the backend queue the request came from.
 */

package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"github.com/giftmart/console-service/internal/domain"
)

// ListUsers fetches all marketplace user accounts.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.getJSON(ctx, "/admin/users/", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/users/%d/", id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PendingUpgrades fetches pending identity-upgrade requests for level 2 or 3.
func (c *Client) PendingUpgrades(ctx context.Context, level int) ([]domain.UpgradeRequest, error) {
	if level != 2 && level != 3 {
		return nil, fmt.Errorf("unsupported upgrade level %d", level)
	}
	var requests []domain.UpgradeRequest
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/pending/level%d/", level), &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveUpgrade approves one pending upgrade request.
func (c *Client) ApproveUpgrade(ctx context.Context, level int, id int64) error {
	return c.decideUpgrade(ctx, "approve", level, id)
}

// RejectUpgrade rejects one pending upgrade request.
func (c *Client) RejectUpgrade(ctx context.Context, level int, id int64) error {
	return c.decideUpgrade(ctx, "reject", level, id)
}

func (c *Client) decideUpgrade(ctx context.Context, decision string, level int, id int64) error {
	if level != 2 && level != 3 {
		return fmt.Errorf("unsupported upgrade level %d", level)
	}
	path := fmt.Sprintf("/admin/%s/level%d/%d/", decision, level, id)
	return c.do(ctx, http.MethodPost, path, "", nil, nil)
}
