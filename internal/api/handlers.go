/**
 * @description
 * This file contains the HTTP handlers for the admin console. Handlers stay
 * thin: they decode requests, drive the controllers in the app package, and
 * translate the outcome into JSON responses. Entity collections are served
 * from the dashboard's in-memory state; mutations go through the form and
 * confirmation flows so the reconciliation policy always applies.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: For extracting URL parameters.
 * - internal/app: The console controllers (dashboard, forms, gates).
 * - pkg/marketplace: The marketplace admin API client.
 */

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giftmart/console-service/internal/app"
	"github.com/giftmart/console-service/internal/domain"
	"github.com/giftmart/console-service/internal/session"
	"github.com/giftmart/console-service/pkg/marketplace"
)

// ConsoleHandlers holds the dependencies shared by all console endpoints.
type ConsoleHandlers struct {
	client    *marketplace.Client
	sessions  *session.Store
	dashboard *app.Dashboard
}

// NewConsoleHandlers creates a new instance of ConsoleHandlers.
func NewConsoleHandlers(client *marketplace.Client, sessions *session.Store, dashboard *app.Dashboard) *ConsoleHandlers {
	return &ConsoleHandlers{client: client, sessions: sessions, dashboard: dashboard}
}

// LoginHandler exchanges admin credentials for a session. On success the
// tokens are persisted and a full dashboard load is kicked off in the
// background so the console is warm by the time the client asks for data.
func (h *ConsoleHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("level=warn component=api endpoint=login outcome=failed email=%s err=%v", req.Email, err)
		h.writeError(w, http.StatusUnauthorized, marketplace.ErrorMessage(err, "Login failed. Please check your credentials."))
		return
	}
	if err := h.sessions.Set(resp.Access, resp.Refresh); err != nil {
		log.Printf("level=error component=api endpoint=login msg=\"failed to persist session\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to persist session")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		h.dashboard.Load(ctx)
	}()

	log.Printf("level=info component=api endpoint=login outcome=success email=%s", req.Email)
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged in successfully."})
}

// LogoutHandler clears the persisted session tokens.
func (h *ConsoleHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(); err != nil {
		log.Printf("level=error component=api endpoint=logout msg=\"failed to clear session\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out."})
}

// RefreshSessionHandler trades the stored refresh token for a new access
// token. Without a refresh token the operator has to log in again.
func (h *ConsoleHandlers) RefreshSessionHandler(w http.ResponseWriter, r *http.Request) {
	refresh := h.sessions.RefreshToken()
	if refresh == "" {
		h.writeError(w, http.StatusUnauthorized, "No refresh token. Please log in again.")
		return
	}

	resp, err := h.client.Refresh(r.Context(), refresh)
	if err != nil {
		log.Printf("level=warn component=api endpoint=refresh outcome=failed err=%v", err)
		h.writeError(w, http.StatusUnauthorized, marketplace.ErrorMessage(err, "Session refresh failed. Please log in again."))
		return
	}
	if resp.Refresh == "" {
		resp.Refresh = refresh
	}
	if err := h.sessions.Set(resp.Access, resp.Refresh); err != nil {
		log.Printf("level=error component=api endpoint=refresh msg=\"failed to persist session\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to persist session")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Session refreshed."})
}

// SessionHandler reports whether a usable session exists.
func (h *ConsoleHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": h.sessions.Valid()})
}

// OverviewHandler returns the derived dashboard statistics.
func (h *ConsoleHandlers) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.OverviewStats())
}

// storeView is a store joined with its derived card count for list rendering.
type storeView struct {
	domain.Store
	CardCount int `json:"card_count"`
}

// ListStoresHandler returns the loaded stores with their card counts.
func (h *ConsoleHandlers) ListStoresHandler(w http.ResponseWriter, r *http.Request) {
	stores := h.dashboard.Stores()
	views := make([]storeView, 0, len(stores))
	for _, s := range stores {
		views = append(views, storeView{Store: s, CardCount: h.dashboard.CardCount(s.ID)})
	}
	h.writeJSON(w, http.StatusOK, views)
}

// cardView is a gift card joined with its two-fraction-digit rate rendering.
type cardView struct {
	domain.Card
	RateDisplay string `json:"rate_display"`
}

func cardViews(cards []domain.Card) []cardView {
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, cardView{Card: c, RateDisplay: domain.FormatAmount(c.Rate)})
	}
	return views
}

// StoreCardsHandler returns the cards belonging to one loaded store.
func (h *ConsoleHandlers) StoreCardsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid store id")
		return
	}
	cards := h.dashboard.CardsForStore(id)
	if cards == nil {
		h.writeError(w, http.StatusNotFound, "Store not found")
		return
	}
	h.writeJSON(w, http.StatusOK, cardViews(cards))
}

// ListCardsHandler returns all loaded gift cards.
func (h *ConsoleHandlers) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, cardViews(h.dashboard.Cards()))
}

// ListUsersHandler returns all loaded users.
func (h *ConsoleHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.Users())
}

// GetUserHandler fetches one user directly from the backend. Locally created
// users carry negative temporary ids and are served from the loaded
// collection instead.
func (h *ConsoleHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id < 0 {
		if user := h.dashboard.UserByID(id); user != nil {
			h.writeJSON(w, http.StatusOK, user)
			return
		}
		h.writeError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.client.GetUser(r.Context(), id)
	if err != nil {
		var apiErr *marketplace.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=warn component=api endpoint=get_user id=%d err=%v", id, err)
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to load user"))
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ListUpgradesHandler returns the pending upgrade requests for one KYC level.
func (h *ConsoleHandlers) ListUpgradesHandler(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || (level != 2 && level != 3) {
		h.writeError(w, http.StatusBadRequest, "Upgrade level must be 2 or 3")
		return
	}
	h.writeJSON(w, http.StatusOK, h.dashboard.PendingUpgrades(level))
}

// ListWithdrawalsHandler returns the loaded withdrawal requests. A status
// query parameter bypasses the local collection and asks the backend for a
// filtered list, since only the unfiltered collection is cached.
func (h *ConsoleHandlers) ListWithdrawalsHandler(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		h.writeJSON(w, http.StatusOK, withdrawalViews(h.dashboard.Withdrawals()))
		return
	}

	withdrawals, err := h.client.ListWithdrawalsByStatus(r.Context(), status)
	if err != nil {
		log.Printf("level=warn component=api endpoint=list_withdrawals status=%q err=%v", status, err)
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to load withdrawals"))
		return
	}
	h.writeJSON(w, http.StatusOK, withdrawalViews(withdrawals))
}

// withdrawalView is a withdrawal joined with its currency rendering.
type withdrawalView struct {
	domain.Withdrawal
	AmountDisplay string `json:"amount_display"`
}

func withdrawalViews(withdrawals []domain.Withdrawal) []withdrawalView {
	views := make([]withdrawalView, 0, len(withdrawals))
	for _, wd := range withdrawals {
		views = append(views, withdrawalView{Withdrawal: wd, AmountDisplay: domain.FormatAmount(wd.Amount)})
	}
	return views
}

// BannerHandler returns the current dashboard banner, or 204 when none is set.
func (h *ConsoleHandlers) BannerHandler(w http.ResponseWriter, r *http.Request) {
	banner := h.dashboard.CurrentBanner()
	if banner == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, banner)
}

// ClearBannerHandler dismisses the current dashboard banner.
func (h *ConsoleHandlers) ClearBannerHandler(w http.ResponseWriter, r *http.Request) {
	h.dashboard.ClearBanner()
	w.WriteHeader(http.StatusNoContent)
}

// ReloadHandler reloads all dashboard collections and reports any
// per-collection failures alongside the resulting stats.
func (h *ConsoleHandlers) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	h.dashboard.Load(r.Context())

	failures := make(map[string]string)
	for collection, err := range h.dashboard.LoadErrors() {
		failures[string(collection)] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    h.dashboard.OverviewStats(),
		"failures": failures,
	})
}

// formRequest is the decoded body for a form submission. Values are keyed by
// field name; Cards carries the repeatable sub-entries of store forms; Image
// is an optional base64 payload for the store image.
type formRequest struct {
	EditID  int64             `json:"edit_id,omitempty"`
	Values  map[string]string `json:"values"`
	Cards   []app.CardRow     `json:"cards,omitempty"`
	StoreID int64             `json:"store_id,omitempty"`
	Image   string            `json:"image,omitempty"`
	// ImageName is the original filename of the uploaded image.
	ImageName string `json:"image_name,omitempty"`
}

// SubmitFormHandler runs one full form flow: open the modal for the requested
// kind, prefill for edits, apply the submitted values, and submit. Validation
// failures come back as 422 with the inline message; backend failures as 502.
func (h *ConsoleHandlers) SubmitFormHandler(w http.ResponseWriter, r *http.Request) {
	kind := app.FormKindFromString(chi.URLParam(r, "kind"))
	if kind == app.FormUnknown {
		h.writeError(w, http.StatusBadRequest, "Unknown form kind")
		return
	}

	var req formRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form := h.dashboard.OpenForm(kind)
	if err := h.prefillForm(r.Context(), form, kind, req.EditID); err != nil {
		h.dashboard.CloseActiveForm()
		h.writeError(w, http.StatusNotFound, marketplace.ErrorMessage(err, "Record not found"))
		return
	}

	for name, value := range req.Values {
		form.SetValue(name, value)
	}
	for i, row := range req.Cards {
		if i > 0 {
			form.AddCardRow()
		}
		form.SetCardRow(i, row.Type, row.Name, row.Rate)
	}
	if req.StoreID != 0 {
		if !h.selectStore(form, req.StoreID) {
			h.dashboard.CloseActiveForm()
			h.writeError(w, http.StatusBadRequest, "Store not found")
			return
		}
	}
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			h.dashboard.CloseActiveForm()
			h.writeError(w, http.StatusBadRequest, "Image must be base64 encoded")
			return
		}
		// Wait for the decode goroutine so the payload carries the image.
		<-form.AttachImage(req.ImageName, bytes.NewReader(data))
	}

	// Store and card edits overwrite existing records and go through the
	// warning gate; the posted form is the operator's confirmation.
	var submitErr error
	switch kind {
	case app.FormEditStore, app.FormEditCard:
		gate := &app.ConfirmGate{}
		gate.OpenGate(app.GateWarning,
			"Save these changes?",
			"The existing record will be overwritten.",
			"Save", "Cancel",
			func(ctx context.Context) error { return form.Submit(ctx) })
		submitErr = gate.Confirm(r.Context())
	default:
		submitErr = form.Submit(r.Context())
	}
	if submitErr != nil {
		if errors.Is(submitErr, app.ErrSubmitInFlight) {
			h.writeError(w, http.StatusConflict, "Submission already in flight")
			return
		}
		h.writeError(w, http.StatusInternalServerError, submitErr.Error())
		return
	}

	if msg := form.ErrorMessage(); msg != "" {
		h.dashboard.CloseActiveForm()
		h.writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": form.SuccessMessage()})
}

// prefillForm seeds an edit form from the current entity. Create forms and a
// zero edit id are a no-op.
func (h *ConsoleHandlers) prefillForm(ctx context.Context, form *app.Form, kind app.FormKind, editID int64) error {
	if editID == 0 {
		return nil
	}
	switch kind {
	case app.FormEditStore:
		store, err := h.client.GetStore(ctx, editID)
		if err != nil {
			return err
		}
		form.PrefillStore(*store, h.dashboard.CardsForStore(editID))
	case app.FormEditCard:
		card, err := h.client.GetCard(ctx, editID)
		if err != nil {
			return err
		}
		form.PrefillCard(*card)
	case app.FormEditUser:
		for _, u := range h.dashboard.Users() {
			if u.ID == editID {
				form.PrefillUser(u)
				return nil
			}
		}
		return fmt.Errorf("user %d not loaded", editID)
	}
	return nil
}

func (h *ConsoleHandlers) selectStore(form *app.Form, storeID int64) bool {
	for _, s := range h.dashboard.Stores() {
		if s.ID == storeID {
			form.SelectStore(s)
			return true
		}
	}
	return false
}

// DeleteStoreHandler removes a store after an explicit confirmation gate.
func (h *ConsoleHandlers) DeleteStoreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid store id")
		return
	}

	gate := &app.ConfirmGate{}
	gate.OpenGate(app.GateDanger,
		"Delete this store?",
		"All of its gift cards will also be removed. This cannot be undone.",
		"Delete", "Cancel",
		func(ctx context.Context) error { return h.dashboard.DeleteStore(ctx, id) })

	if err := gate.Confirm(r.Context()); err != nil {
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to delete store. Please try again."))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Store deleted."})
}

// DeleteCardHandler removes a gift card after an explicit confirmation gate.
func (h *ConsoleHandlers) DeleteCardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card id")
		return
	}

	gate := &app.ConfirmGate{}
	gate.OpenGate(app.GateDanger,
		"Delete this gift card?",
		"This cannot be undone.",
		"Delete", "Cancel",
		func(ctx context.Context) error { return h.dashboard.DeleteCard(ctx, id) })

	if err := gate.Confirm(r.Context()); err != nil {
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to delete card. Please try again."))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Gift card deleted."})
}

// ResolveUpgradeHandler approves or rejects one pending KYC upgrade request.
func (h *ConsoleHandlers) ResolveUpgradeHandler(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || (level != 2 && level != 3) {
		h.writeError(w, http.StatusBadRequest, "Upgrade level must be 2 or 3")
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	decision := chi.URLParam(r, "decision")
	if decision != "approve" && decision != "reject" {
		h.writeError(w, http.StatusBadRequest, "Decision must be approve or reject")
		return
	}

	if err := h.dashboard.ResolveUpgrade(r.Context(), level, id, decision == "approve"); err != nil {
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to update the upgrade request. Please try again."))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Upgrade request " + decision + "d."})
}

// withdrawalDetailView bundles a withdrawal with its audit trail.
type withdrawalDetailView struct {
	Withdrawal    *domain.Withdrawal `json:"withdrawal"`
	AmountDisplay string             `json:"amount_display,omitempty"`
	AuditLog      []auditEntryView   `json:"audit_log"`
}

// auditEntryView resolves the display label so the shell never needs the
// raw-action fallback logic.
type auditEntryView struct {
	domain.AuditLogEntry
	ActionDisplay string `json:"action_display"`
}

func auditViews(entries []domain.AuditLogEntry) []auditEntryView {
	views := make([]auditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditEntryView{AuditLogEntry: e, ActionDisplay: e.DisplayAction()})
	}
	return views
}

// WithdrawalDetailHandler returns one withdrawal with its audit log. The
// audit log failing alone does not fail the view.
func (h *ConsoleHandlers) WithdrawalDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}

	detail := app.NewWithdrawalDetail(id, app.WithdrawalDetailConfig{Service: h.client})
	if err := detail.Load(r.Context()); err != nil {
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to load withdrawal details"))
		return
	}
	view := withdrawalDetailView{
		Withdrawal: detail.Withdrawal(),
		AuditLog:   auditViews(detail.AuditLog()),
	}
	if view.Withdrawal != nil {
		view.AmountDisplay = domain.FormatAmount(view.Withdrawal.Amount)
	}
	h.writeJSON(w, http.StatusOK, view)
}

// processWithdrawalRequest is the decoded body for a withdrawal decision.
type processWithdrawalRequest struct {
	Action               string `json:"action"`
	TransactionReference string `json:"transaction_reference"`
	Reason               string `json:"reason"`
	AdminNotes           string `json:"admin_notes"`
}

// ProcessWithdrawalHandler submits an approve or reject decision for one
// withdrawal. On success the dashboard refetches the withdrawal list.
func (h *ConsoleHandlers) ProcessWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}
	var req processWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	detail := app.NewWithdrawalDetail(id, app.WithdrawalDetailConfig{
		Service: h.client,
		OnProcessed: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			h.dashboard.WithdrawalProcessed(ctx)
		},
	})
	if req.Action != "" {
		detail.SetAction(req.Action)
	}
	detail.SetTransactionReference(req.TransactionReference)
	detail.SetReason(req.Reason)
	detail.SetAdminNotes(req.AdminNotes)

	if err := detail.Process(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msg := detail.ErrorMessage(); msg != "" {
		h.writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": detail.SuccessMessage()})
}

// PendingWithdrawalCountHandler proxies the backend's pending count, used by
// the sidebar badge.
func (h *ConsoleHandlers) PendingWithdrawalCountHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.client.PendingWithdrawalCount(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, marketplace.ErrorMessage(err, "Failed to load pending withdrawal count"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// writeJSON is a helper for writing JSON responses.
func (h *ConsoleHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *ConsoleHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
