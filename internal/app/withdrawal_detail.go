/**
 * @description
 * This file contains the withdrawal detail processor: it loads one
 * withdrawal and its audit trail, collects an exclusive approve/reject
 * decision with action-specific required fields, and submits it. On success
 * it notifies two caller callbacks after a short delay: one to trigger the
 * dashboard's withdrawal refetch, one to close the view.
 */

package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/giftmart/console-service/internal/domain"
	"github.com/giftmart/console-service/pkg/marketplace"
)

// WithdrawalService is the slice of the marketplace client the detail view
// uses.
type WithdrawalService interface {
	GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error)
	WithdrawalAuditLog(ctx context.Context, id int64) ([]domain.AuditLogEntry, error)
	ProcessWithdrawal(ctx context.Context, id int64, req domain.ProcessWithdrawalRequest) error
}

// Decision actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// WithdrawalDetail is the state for one open withdrawal review.
type WithdrawalDetail struct {
	mu sync.Mutex

	svc WithdrawalService
	id  int64

	withdrawal *domain.Withdrawal
	auditLog   []domain.AuditLogEntry

	action               string
	transactionReference string
	reason               string
	adminNotes           string

	loading    bool
	processing bool
	errMsg     string
	successMsg string

	successDelay time.Duration
	onProcessed  func()
	onClose      func()
}

// WithdrawalDetailConfig carries the collaborators for one detail instance.
type WithdrawalDetailConfig struct {
	Service      WithdrawalService
	SuccessDelay time.Duration
	// OnProcessed signals a completed decision; the dashboard refetches the
	// withdrawal list in response.
	OnProcessed func()
	OnClose     func()
}

// NewWithdrawalDetail creates the review state for one withdrawal id.
// The action defaults to approve, matching the initial radio selection.
func NewWithdrawalDetail(id int64, cfg WithdrawalDetailConfig) *WithdrawalDetail {
	return &WithdrawalDetail{
		svc:          cfg.Service,
		id:           id,
		action:       ActionApprove,
		successDelay: cfg.SuccessDelay,
		onProcessed:  cfg.OnProcessed,
		onClose:      cfg.OnClose,
	}
}

// Load fetches the withdrawal and its audit log concurrently. The audit log
// failing alone does not fail the view; the trail just renders empty.
func (w *WithdrawalDetail) Load(ctx context.Context) error {
	w.mu.Lock()
	w.loading = true
	w.errMsg = ""
	w.mu.Unlock()

	var (
		withdrawal    *domain.Withdrawal
		auditLog      []domain.AuditLogEntry
		withdrawalErr error
		auditErr      error
		wg            sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		withdrawal, withdrawalErr = w.svc.GetWithdrawal(ctx, w.id)
	}()
	go func() {
		defer wg.Done()
		auditLog, auditErr = w.svc.WithdrawalAuditLog(ctx, w.id)
	}()
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if withdrawalErr != nil {
		w.errMsg = marketplace.ErrorMessage(withdrawalErr, "Failed to fetch withdrawal details")
		return withdrawalErr
	}
	w.withdrawal = withdrawal
	if auditErr == nil {
		w.auditLog = auditLog
	}
	return nil
}

// Withdrawal returns the loaded withdrawal, or nil before Load succeeds.
func (w *WithdrawalDetail) Withdrawal() *domain.Withdrawal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.withdrawal
}

// AuditLog returns the loaded audit trail.
func (w *WithdrawalDetail) AuditLog() []domain.AuditLogEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.AuditLogEntry, len(w.auditLog))
	copy(out, w.auditLog)
	return out
}

// SetAction selects approve or reject. Unknown values are ignored.
func (w *WithdrawalDetail) SetAction(action string) {
	if action != ActionApprove && action != ActionReject {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.action = action
}

// Action returns the currently selected decision.
func (w *WithdrawalDetail) Action() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.action
}

// SetTransactionReference records the approval reference input.
func (w *WithdrawalDetail) SetTransactionReference(ref string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transactionReference = ref
}

// SetReason records the rejection reason input.
func (w *WithdrawalDetail) SetReason(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reason = reason
}

// SetAdminNotes records the optional free-text note.
func (w *WithdrawalDetail) SetAdminNotes(notes string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.adminNotes = notes
}

// ErrorMessage returns the current inline error, or "".
func (w *WithdrawalDetail) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// SuccessMessage returns the current success notice, or "".
func (w *WithdrawalDetail) SuccessMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.successMsg
}

// Processing reports whether the decision request is in flight. Navigation
// and the action controls are disabled while true.
func (w *WithdrawalDetail) Processing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processing
}

// Process validates the selected action's required field and submits the
// decision. Validation failures set the inline error and make no network
// call. On success the processed and close callbacks fire after the
// configured delay.
func (w *WithdrawalDetail) Process(ctx context.Context) error {
	w.mu.Lock()
	if w.processing {
		w.mu.Unlock()
		return nil
	}
	w.errMsg = ""
	w.successMsg = ""

	if w.action == ActionApprove && strings.TrimSpace(w.transactionReference) == "" {
		w.errMsg = "Transaction reference is required for approval"
		w.mu.Unlock()
		return nil
	}
	if w.action == ActionReject && strings.TrimSpace(w.reason) == "" {
		w.errMsg = "Rejection reason is required"
		w.mu.Unlock()
		return nil
	}

	req := domain.ProcessWithdrawalRequest{
		Action:               w.action,
		Reason:               w.reason,
		TransactionReference: w.transactionReference,
		AdminNotes:           w.adminNotes,
	}
	action := w.action
	w.processing = true
	w.mu.Unlock()

	err := w.svc.ProcessWithdrawal(ctx, w.id, req)

	w.mu.Lock()
	w.processing = false
	if err != nil {
		w.errMsg = marketplace.ErrorMessage(err, "Failed to process withdrawal")
		w.mu.Unlock()
		return nil
	}
	if action == ActionApprove {
		w.successMsg = "Withdrawal approved successfully!"
	} else {
		w.successMsg = "Withdrawal rejected successfully!"
	}
	onProcessed := w.onProcessed
	onClose := w.onClose
	delay := w.successDelay
	w.mu.Unlock()

	notify := func() {
		if onProcessed != nil {
			onProcessed()
		}
		if onClose != nil {
			onClose()
		}
	}
	if delay > 0 {
		time.AfterFunc(delay, notify)
	} else {
		notify()
	}
	return nil
}

// Close invokes the close callback unless a decision is still in flight.
func (w *WithdrawalDetail) Close() bool {
	w.mu.Lock()
	if w.processing {
		w.mu.Unlock()
		return false
	}
	onClose := w.onClose
	w.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return true
}
