package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/giftmart/console-service/internal/domain"
	"github.com/giftmart/console-service/pkg/marketplace"
)

type stubWithdrawalService struct {
	mu sync.Mutex

	withdrawal *domain.Withdrawal
	auditLog   []domain.AuditLogEntry

	getErr     error
	auditErr   error
	processErr error

	processCalls int
	lastID       int64
	lastRequest  domain.ProcessWithdrawalRequest
}

func (s *stubWithdrawalService) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.withdrawal, nil
}

func (s *stubWithdrawalService) WithdrawalAuditLog(ctx context.Context, id int64) ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditErr != nil {
		return nil, s.auditErr
	}
	return append([]domain.AuditLogEntry(nil), s.auditLog...), nil
}

func (s *stubWithdrawalService) ProcessWithdrawal(ctx context.Context, id int64, req domain.ProcessWithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processCalls++
	s.lastID = id
	s.lastRequest = req
	return s.processErr
}

func seededWithdrawalService() *stubWithdrawalService {
	return &stubWithdrawalService{
		withdrawal: &domain.Withdrawal{
			ID:           500,
			UserFullName: "Jane Admin",
			UserEmail:    "jane@example.com",
			Amount:       "5000",
			Status:       domain.WithdrawalPending,
			BankName:     "First Bank",
		},
		auditLog: []domain.AuditLogEntry{
			{Action: "created", PerformedByEmail: "jane@example.com"},
		},
	}
}

func TestWithdrawalDetailLoad(t *testing.T) {
	svc := seededWithdrawalService()
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})

	if err := detail.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if detail.Withdrawal() == nil || detail.Withdrawal().ID != 500 {
		t.Fatalf("expected withdrawal 500 loaded, got %+v", detail.Withdrawal())
	}
	if got := len(detail.AuditLog()); got != 1 {
		t.Fatalf("expected 1 audit entry, got %d", got)
	}
	if detail.Action() != ActionApprove {
		t.Fatalf("expected the action to default to approve, got %q", detail.Action())
	}
}

func TestWithdrawalDetailAuditFailureIsNonFatal(t *testing.T) {
	svc := seededWithdrawalService()
	svc.auditErr = errors.New("audit endpoint down")

	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	if err := detail.Load(context.Background()); err != nil {
		t.Fatalf("audit failure alone must not fail the load, got %v", err)
	}
	if detail.Withdrawal() == nil {
		t.Fatalf("expected the withdrawal despite the audit failure")
	}
	if got := len(detail.AuditLog()); got != 0 {
		t.Fatalf("expected an empty audit trail, got %d entries", got)
	}
}

func TestWithdrawalDetailLoadFailure(t *testing.T) {
	svc := seededWithdrawalService()
	svc.getErr = errors.New("withdrawal endpoint down")

	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	if err := detail.Load(context.Background()); err == nil {
		t.Fatalf("expected the load to fail when the withdrawal fetch fails")
	}
}

func TestProcessApproveRequiresReference(t *testing.T) {
	svc := seededWithdrawalService()
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	detail.SetAction(ActionApprove)

	if err := detail.Process(context.Background()); err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
	if got := detail.ErrorMessage(); got != "Transaction reference is required for approval" {
		t.Fatalf("unexpected validation message %q", got)
	}
	if svc.processCalls != 0 {
		t.Fatalf("validation failure must not reach the service, got %d calls", svc.processCalls)
	}
}

func TestProcessRejectRequiresReason(t *testing.T) {
	svc := seededWithdrawalService()
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	detail.SetAction(ActionReject)
	// A transaction reference alone does not satisfy a rejection.
	detail.SetTransactionReference("TX-123")

	if err := detail.Process(context.Background()); err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
	if got := detail.ErrorMessage(); got != "Rejection reason is required" {
		t.Fatalf("unexpected validation message %q", got)
	}
	if svc.processCalls != 0 {
		t.Fatalf("validation failure must not reach the service, got %d calls", svc.processCalls)
	}
}

func TestProcessApproveSuccess(t *testing.T) {
	svc := seededWithdrawalService()
	processed := false
	closed := false
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{
		Service:     svc,
		OnProcessed: func() { processed = true },
		OnClose:     func() { closed = true },
	})
	detail.SetAction(ActionApprove)
	detail.SetTransactionReference("TX-123")
	detail.SetAdminNotes("verified against bank statement")

	if err := detail.Process(context.Background()); err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}

	if got := detail.SuccessMessage(); got != "Withdrawal approved successfully!" {
		t.Fatalf("unexpected success message %q", got)
	}
	if !processed || !closed {
		t.Fatalf("expected both callbacks to fire, processed=%t closed=%t", processed, closed)
	}
	if svc.lastID != 500 {
		t.Fatalf("expected the decision for withdrawal 500, got %d", svc.lastID)
	}
	req := svc.lastRequest
	if req.Action != ActionApprove || req.TransactionReference != "TX-123" || req.AdminNotes != "verified against bank statement" {
		t.Fatalf("unexpected request payload %+v", req)
	}
}

func TestProcessRejectSuccess(t *testing.T) {
	svc := seededWithdrawalService()
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	detail.SetAction(ActionReject)
	detail.SetReason("Account name mismatch")

	if err := detail.Process(context.Background()); err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
	if got := detail.SuccessMessage(); got != "Withdrawal rejected successfully!" {
		t.Fatalf("unexpected success message %q", got)
	}
	if svc.lastRequest.Reason != "Account name mismatch" {
		t.Fatalf("expected the reason on the payload, got %q", svc.lastRequest.Reason)
	}
}

func TestProcessFailureUsesBackendDetail(t *testing.T) {
	svc := seededWithdrawalService()
	svc.processErr = &marketplace.APIError{Status: 409, Detail: "Withdrawal already processed."}

	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{Service: svc})
	detail.SetAction(ActionApprove)
	detail.SetTransactionReference("TX-123")

	if err := detail.Process(context.Background()); err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
	if got := detail.ErrorMessage(); got != "Withdrawal already processed." {
		t.Fatalf("expected the backend detail, got %q", got)
	}
	if detail.SuccessMessage() != "" {
		t.Fatalf("failure must not set a success message")
	}
	if detail.Processing() {
		t.Fatalf("expected the processing flag to clear after the failure")
	}
}

func TestCloseRefusedWhileProcessing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	svc := seededWithdrawalService()

	blocking := &blockingWithdrawalService{inner: svc, started: started, release: release}
	closed := false
	detail := NewWithdrawalDetail(500, WithdrawalDetailConfig{
		Service: blocking,
		OnClose: func() { closed = true },
	})
	detail.SetAction(ActionApprove)
	detail.SetTransactionReference("TX-123")

	done := make(chan error, 1)
	go func() { done <- detail.Process(context.Background()) }()
	<-started

	if detail.Close() {
		t.Fatalf("close must be refused while the decision is in flight")
	}
	if closed {
		t.Fatalf("the close callback must not fire while refused")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
}

type blockingWithdrawalService struct {
	inner   *stubWithdrawalService
	started chan struct{}
	release chan struct{}
}

func (b *blockingWithdrawalService) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return b.inner.GetWithdrawal(ctx, id)
}

func (b *blockingWithdrawalService) WithdrawalAuditLog(ctx context.Context, id int64) ([]domain.AuditLogEntry, error) {
	return b.inner.WithdrawalAuditLog(ctx, id)
}

func (b *blockingWithdrawalService) ProcessWithdrawal(ctx context.Context, id int64, req domain.ProcessWithdrawalRequest) error {
	close(b.started)
	<-b.release
	return b.inner.ProcessWithdrawal(ctx, id, req)
}
