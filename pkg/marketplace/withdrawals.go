/**
 * @description
 * Withdrawal endpoints of the marketplace admin API: the list and detail
 * reads, the approve/reject decision post, the derived audit trail, and the
 * pending-count convenience read used by the overview statistics.
 */

package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/giftmart/console-service/internal/domain"
)

// ListWithdrawals fetches all withdrawal requests.
func (c *Client) ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	if err := c.getJSON(ctx, "/admin/withdrawals/", &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// ListWithdrawalsByStatus fetches withdrawals filtered by backend status.
func (c *Client) ListWithdrawalsByStatus(ctx context.Context, status string) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	path := "/admin/withdrawals/?status=" + url.QueryEscape(status)
	if err := c.getJSON(ctx, path, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// GetWithdrawal fetches one withdrawal by id.
func (c *Client) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	var withdrawal domain.Withdrawal
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/withdrawals/%d/", id), &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// ProcessWithdrawal posts an approve or reject decision for one withdrawal.
func (c *Client) ProcessWithdrawal(ctx context.Context, id int64, req domain.ProcessWithdrawalRequest) error {
	path := fmt.Sprintf("/admin/withdrawals/%d/process/", id)
	return c.sendJSON(ctx, http.MethodPost, path, req, nil)
}

// WithdrawalAuditLog fetches the audit trail for one withdrawal.
func (c *Client) WithdrawalAuditLog(ctx context.Context, id int64) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/withdrawals/%d/audit-log/", id), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PendingWithdrawalCount fetches the number of withdrawals awaiting review.
func (c *Client) PendingWithdrawalCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, "/admin/withdrawals/pending-count/", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}
