/**
 * @description
 * This file defines the withdrawal-request models used by the withdrawals list
 * and the withdrawal detail/processor view, including the audit trail the
 * backend derives for each request.
 */

package domain

import (
	"encoding/json"
	"time"
)

// Withdrawal statuses as reported by the backend.
const (
	WithdrawalPending    = "Pending"
	WithdrawalApproved   = "Approved"
	WithdrawalRejected   = "Rejected"
	WithdrawalProcessing = "Processing"
	WithdrawalCompleted  = "Completed"
)

// Withdrawal represents one cash-out request awaiting or past admin review.
type Withdrawal struct {
	ID            int64       `json:"id"`
	UserFullName  string      `json:"user_full_name"`
	UserEmail     string      `json:"user_email"`
	Amount        json.Number `json:"amount"`
	Status        string      `json:"status"`
	BankName      string      `json:"bank_name"`
	AccountName   string      `json:"account_name"`
	AccountNumber string      `json:"account_number"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// AuditLogEntry is one row of a withdrawal's derived audit trail.
type AuditLogEntry struct {
	ID               int64     `json:"id"`
	Action           string    `json:"action"`
	ActionDisplay    string    `json:"action_display,omitempty"`
	PerformedByEmail string    `json:"performed_by_email"`
	Details          string    `json:"details,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// DisplayAction returns the human-readable action label, falling back to the
// raw action code when the backend omits one.
func (e AuditLogEntry) DisplayAction() string {
	if e.ActionDisplay != "" {
		return e.ActionDisplay
	}
	return e.Action
}

// ProcessWithdrawalRequest is the decision body posted to the backend. Both
// branches send the full shape; the unused field is left empty.
type ProcessWithdrawalRequest struct {
	Action               string `json:"action"`
	Reason               string `json:"reason"`
	TransactionReference string `json:"transaction_reference"`
	AdminNotes           string `json:"admin_notes"`
}
