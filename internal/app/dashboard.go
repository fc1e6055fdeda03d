/**
 * @description
 * This file contains the dashboard controller: the single owner of every
 * entity collection the console shows. It fetches all collections on load,
 * and after every mutation decides whether to patch the local copy or refetch
 * from the backend:
 *
 *   - deletes and upgrade decisions reconcile by local filter-removal;
 *   - store and card creates/edits always refetch both the store and card
 *     collections wholesale, never patch locally (grouping is derived state
 *     only the backend can compute consistently);
 *   - withdrawal processing refetches the withdrawal list.
 *
 * The controller is also what ultimately closes a form it opened, after
 * reconciliation has settled.
 */

package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/giftmart/console-service/internal/domain"
	"github.com/giftmart/console-service/pkg/marketplace"
)

// Collection names the six independently loaded dashboard collections.
type Collection string

const (
	CollectionStores        Collection = "stores"
	CollectionCards         Collection = "cards"
	CollectionUsers         Collection = "users"
	CollectionPendingLevel2 Collection = "pending_level2"
	CollectionPendingLevel3 Collection = "pending_level3"
	CollectionWithdrawals   Collection = "withdrawals"
)

// DashboardService is the slice of the marketplace client the controller
// fetches and mutates through.
type DashboardService interface {
	FormService

	ListStores(ctx context.Context) ([]domain.Store, error)
	ListCards(ctx context.Context) ([]domain.Card, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	PendingUpgrades(ctx context.Context, level int) ([]domain.UpgradeRequest, error)
	ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)

	DeleteStore(ctx context.Context, id int64) error
	DeleteCard(ctx context.Context, id int64) error
	ApproveUpgrade(ctx context.Context, level int, id int64) error
	RejectUpgrade(ctx context.Context, level int, id int64) error
}

// BannerKind distinguishes the two non-fatal failure banners: the mutation
// itself failed, versus the mutation likely succeeded but the refreshed view
// could not be loaded. The two must never be conflated; the second wording
// stops an operator from resubmitting a duplicate.
type BannerKind string

const (
	BannerMutationFailed BannerKind = "mutation_failed"
	BannerViewStale      BannerKind = "view_stale"
)

// Banner is a dismissible non-fatal notice on the dashboard.
type Banner struct {
	Kind BannerKind `json:"kind"`
	Text string     `json:"text"`
}

// Stats is the overview snapshot derived from the loaded collections. Counts
// are always computed here, never read from denormalized backend fields.
type Stats struct {
	Stores             int `json:"stores"`
	Cards              int `json:"cards"`
	Users              int `json:"users"`
	PendingUpgrades    int `json:"pending_upgrades"`
	PendingWithdrawals int `json:"pending_withdrawals"`
}

// Dashboard owns the in-memory entity collections and the reconciliation
// policy applied after each mutation.
type Dashboard struct {
	mu sync.RWMutex

	svc          DashboardService
	successDelay time.Duration

	stores        []domain.Store
	cards         []domain.Card
	users         []domain.User
	pendingLevel2 []domain.UpgradeRequest
	pendingLevel3 []domain.UpgradeRequest
	withdrawals   []domain.Withdrawal

	loadErrs map[Collection]error
	banner   *Banner

	// next local-only id for users added without a backend endpoint;
	// negative so it can never collide with a server id, discarded on refetch.
	nextLocalUserID int64

	activeForm *Form
}

// NewDashboard creates a controller over the given service. successDelay is
// passed to forms the controller opens.
func NewDashboard(svc DashboardService, successDelay time.Duration) *Dashboard {
	return &Dashboard{
		svc:             svc,
		successDelay:    successDelay,
		loadErrs:        make(map[Collection]error),
		nextLocalUserID: -1,
	}
}

// Load fetches all six collections concurrently. Each fetch settles
// independently: one failure never aborts or empties the others. Failures
// are recorded per collection and logged; the dashboard renders regardless.
func (d *Dashboard) Load(ctx context.Context) {
	type outcome struct {
		collection Collection
		apply      func()
		err        error
	}

	results := make(chan outcome, 6)
	var wg sync.WaitGroup

	fetch := func(collection Collection, run func() (func(), error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			apply, err := run()
			results <- outcome{collection: collection, apply: apply, err: err}
		}()
	}

	fetch(CollectionStores, func() (func(), error) {
		stores, err := d.svc.ListStores(ctx)
		return func() { d.stores = stores }, err
	})
	fetch(CollectionCards, func() (func(), error) {
		cards, err := d.svc.ListCards(ctx)
		return func() { d.cards = cards }, err
	})
	fetch(CollectionUsers, func() (func(), error) {
		users, err := d.svc.ListUsers(ctx)
		return func() { d.users = users }, err
	})
	fetch(CollectionPendingLevel2, func() (func(), error) {
		requests, err := d.svc.PendingUpgrades(ctx, 2)
		return func() { d.pendingLevel2 = requests }, err
	})
	fetch(CollectionPendingLevel3, func() (func(), error) {
		requests, err := d.svc.PendingUpgrades(ctx, 3)
		return func() { d.pendingLevel3 = requests }, err
	})
	fetch(CollectionWithdrawals, func() (func(), error) {
		withdrawals, err := d.svc.ListWithdrawals(ctx)
		return func() { d.withdrawals = withdrawals }, err
	})

	wg.Wait()
	close(results)

	d.mu.Lock()
	defer d.mu.Unlock()
	for res := range results {
		if res.err != nil {
			log.Printf("level=warn component=dashboard msg=\"collection load failed\" collection=%s err=%v", res.collection, res.err)
			d.loadErrs[res.collection] = res.err
			continue
		}
		delete(d.loadErrs, res.collection)
		res.apply()
	}
}

// LoadErrors returns the per-collection failures from the latest load.
func (d *Dashboard) LoadErrors() map[Collection]error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[Collection]error, len(d.loadErrs))
	for k, v := range d.loadErrs {
		out[k] = v
	}
	return out
}

// Stores returns a copy of the store collection.
func (d *Dashboard) Stores() []domain.Store {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Store, len(d.stores))
	copy(out, d.stores)
	return out
}

// Cards returns a copy of the card collection.
func (d *Dashboard) Cards() []domain.Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Users returns a copy of the user collection.
func (d *Dashboard) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.User, len(d.users))
	copy(out, d.users)
	return out
}

// UserByID returns the loaded user with the given id, or nil. Locally created
// users (negative ids) are only findable here.
func (d *Dashboard) UserByID(id int64) *domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.users {
		if d.users[i].ID == id {
			u := d.users[i]
			return &u
		}
	}
	return nil
}

// PendingUpgrades returns a copy of the pending requests for a level.
func (d *Dashboard) PendingUpgrades(level int) []domain.UpgradeRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	src := d.pendingLevel2
	if level == 3 {
		src = d.pendingLevel3
	}
	out := make([]domain.UpgradeRequest, len(src))
	copy(out, src)
	return out
}

// Withdrawals returns a copy of the withdrawal collection.
func (d *Dashboard) Withdrawals() []domain.Withdrawal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Withdrawal, len(d.withdrawals))
	copy(out, d.withdrawals)
	return out
}

// CardsForStore returns the cards grouped under one store. A card whose store
// reference does not resolve to a loaded store is orphaned and appears in no
// group.
func (d *Dashboard) CardsForStore(storeID int64) []domain.Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.storeLoadedLocked(storeID) {
		return nil
	}
	out := []domain.Card{}
	for _, c := range d.cards {
		if c.Store.ID == storeID {
			out = append(out, c)
		}
	}
	return out
}

// CardCount derives the number of cards for a store by filtering the card
// collection. It never reads a counter off the store.
func (d *Dashboard) CardCount(storeID int64) int {
	return len(d.CardsForStore(storeID))
}

func (d *Dashboard) storeLoadedLocked(storeID int64) bool {
	for _, s := range d.stores {
		if s.ID == storeID {
			return true
		}
	}
	return false
}

// OverviewStats derives the overview counters from the loaded collections.
func (d *Dashboard) OverviewStats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pendingWithdrawals := 0
	for _, w := range d.withdrawals {
		if w.Status == domain.WithdrawalPending {
			pendingWithdrawals++
		}
	}
	return Stats{
		Stores:             len(d.stores),
		Cards:              len(d.cards),
		Users:              len(d.users),
		PendingUpgrades:    len(d.pendingLevel2) + len(d.pendingLevel3),
		PendingWithdrawals: pendingWithdrawals,
	}
}

// CurrentBanner returns the current notice, or nil.
func (d *Dashboard) CurrentBanner() *Banner {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.banner == nil {
		return nil
	}
	b := *d.banner
	return &b
}

// ClearBanner dismisses the current notice.
func (d *Dashboard) ClearBanner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = nil
}

func (d *Dashboard) setBanner(kind BannerKind, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = &Banner{Kind: kind, Text: text}
}

// OpenForm creates a form wired so that its completion reconciles the
// controller's collections and then closes the form. The store snapshot
// passed in feeds the card form's store picker.
func (d *Dashboard) OpenForm(kind FormKind) *Form {
	form := NewForm(kind, FormConfig{
		Service:      d.svc,
		Stores:       d.Stores(),
		SuccessDelay: d.successDelay,
		OnDone: func(result FormResult) {
			d.ReconcileForm(context.Background(), result)
		},
	})

	d.mu.Lock()
	d.activeForm = form
	d.mu.Unlock()
	return form
}

// ActiveForm returns the form the controller currently owns, or nil.
func (d *Dashboard) ActiveForm() *Form {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.activeForm
}

// CloseActiveForm closes the owned form without reconciling and drops the
// reference, keeping the controller's bookkeeping consistent when the caller
// abandons a form. A form still submitting refuses to close and stays owned.
func (d *Dashboard) CloseActiveForm() bool {
	d.mu.Lock()
	form := d.activeForm
	d.mu.Unlock()
	if form == nil {
		return true
	}
	if !form.Close() {
		return false
	}
	d.mu.Lock()
	if d.activeForm == form {
		d.activeForm = nil
	}
	d.mu.Unlock()
	return true
}

// ReconcileForm applies the per-operation reconciliation policy after a
// successful form submission, then closes the form.
func (d *Dashboard) ReconcileForm(ctx context.Context, result FormResult) {
	switch result.Kind {
	case FormCreateStore, FormEditStore, FormCreateCard, FormEditCard:
		// Never patch locally: a store or card mutation can change grouping,
		// and only the backend can produce the consistent derived state.
		d.RefetchStoresAndCards(ctx)
	case FormCreateUser:
		if result.User != nil {
			d.addLocalUser(*result.User)
		}
	case FormEditUser:
		if result.User != nil {
			d.patchLocalUser(result.UserID, *result.User)
		}
	}

	d.mu.Lock()
	form := d.activeForm
	d.activeForm = nil
	d.mu.Unlock()
	if form != nil {
		form.Close()
	}
}

// RefetchStoresAndCards reloads both collections wholesale. A failure leaves
// the previous copies in place and raises the stale-view banner, worded so
// the operator knows the mutation itself likely succeeded.
func (d *Dashboard) RefetchStoresAndCards(ctx context.Context) {
	stores, storesErr := d.svc.ListStores(ctx)
	cards, cardsErr := d.svc.ListCards(ctx)

	d.mu.Lock()
	if storesErr == nil {
		d.stores = stores
		delete(d.loadErrs, CollectionStores)
	}
	if cardsErr == nil {
		d.cards = cards
		delete(d.loadErrs, CollectionCards)
	}
	d.mu.Unlock()

	if storesErr != nil || cardsErr != nil {
		log.Printf("level=warn component=dashboard msg=\"refetch after mutation failed\" stores_err=%v cards_err=%v", storesErr, cardsErr)
		d.setBanner(BannerViewStale, "Your change was likely saved, but the view could not be refreshed. Displayed data may be stale.")
	}
}

// DeleteStore confirms with the backend then removes the store from the local
// collection by id. No refetch: removal has no derived state to rebuild.
func (d *Dashboard) DeleteStore(ctx context.Context, id int64) error {
	if err := d.svc.DeleteStore(ctx, id); err != nil {
		d.setBanner(BannerMutationFailed, marketplace.ErrorMessage(err, "Failed to delete store. Please try again."))
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.stores[:0]
	for _, s := range d.stores {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	d.stores = kept
	return nil
}

// DeleteCard confirms with the backend then removes the card locally by id.
func (d *Dashboard) DeleteCard(ctx context.Context, id int64) error {
	if err := d.svc.DeleteCard(ctx, id); err != nil {
		d.setBanner(BannerMutationFailed, marketplace.ErrorMessage(err, "Failed to delete gift card. Please try again."))
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.cards[:0]
	for _, c := range d.cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	d.cards = kept
	return nil
}

// ResolveUpgrade approves or rejects one pending request, then removes it
// from the matching pending collection. Approval and rejection both end the
// request's pending life by definition, so a local removal is exact.
func (d *Dashboard) ResolveUpgrade(ctx context.Context, level int, id int64, approve bool) error {
	var err error
	if approve {
		err = d.svc.ApproveUpgrade(ctx, level, id)
	} else {
		err = d.svc.RejectUpgrade(ctx, level, id)
	}
	if err != nil {
		verb := "approve"
		if !approve {
			verb = "reject"
		}
		d.setBanner(BannerMutationFailed, marketplace.ErrorMessage(err, "Failed to "+verb+" the upgrade request. Please try again."))
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if level == 2 {
		d.pendingLevel2 = removeRequest(d.pendingLevel2, id)
	} else {
		d.pendingLevel3 = removeRequest(d.pendingLevel3, id)
	}
	return nil
}

func removeRequest(requests []domain.UpgradeRequest, id int64) []domain.UpgradeRequest {
	kept := requests[:0]
	for _, r := range requests {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return kept
}

// WithdrawalProcessed refetches the withdrawal list after the detail view
// reports a processed decision.
func (d *Dashboard) WithdrawalProcessed(ctx context.Context) {
	withdrawals, err := d.svc.ListWithdrawals(ctx)
	if err != nil {
		log.Printf("level=warn component=dashboard msg=\"withdrawal refetch failed\" err=%v", err)
		d.setBanner(BannerViewStale, "The withdrawal was processed, but the list could not be refreshed. Displayed data may be stale.")
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.withdrawals = withdrawals
	delete(d.loadErrs, CollectionWithdrawals)
}

func (d *Dashboard) addLocalUser(payload domain.UserPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, domain.User{
		ID:          d.nextLocalUserID,
		FullName:    payload.FullName,
		Email:       payload.Email,
		PhoneNumber: payload.PhoneNumber,
	})
	d.nextLocalUserID--
}

func (d *Dashboard) patchLocalUser(id int64, payload domain.UserPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.users {
		if d.users[i].ID == id {
			d.users[i].FullName = payload.FullName
			d.users[i].Email = payload.Email
			if payload.PhoneNumber != "" {
				d.users[i].PhoneNumber = payload.PhoneNumber
			}
			return
		}
	}
}

// RemoveUser drops a user from the local collection. Users have no backend
// delete endpoint; this is local bookkeeping only.
func (d *Dashboard) RemoveUser(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.users[:0]
	for _, u := range d.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	d.users = kept
}
