/**
 * @description
 * This file contains the form orchestrator: one parametrized dialog state
 * machine that, depending on its operation kind, resolves a field set,
 * validates input in a fixed declared order, submits to the matching backend
 * call, and reports the outcome to its caller. The orchestrator never closes
 * itself on success; the dashboard controller decides when to close, because
 * it must reconcile collections first.
 *
 * State machine per instance:
 *   idle -> validating -> (invalid -> idle with error)
 *                       | (valid -> submitting) -> (success, terminal)
 *                                                | (failure -> idle with error)
 */

package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giftmart/console-service/internal/domain"
	"github.com/giftmart/console-service/pkg/marketplace"
)

// FormKind tags the operation a form instance performs.
type FormKind int

const (
	FormUnknown FormKind = iota
	FormCreateStore
	FormEditStore
	FormCreateCard
	FormEditCard
	FormCreateUser
	FormEditUser
)

// String returns the wire/diagnostic tag for the kind.
func (k FormKind) String() string {
	switch k {
	case FormCreateStore:
		return "create-store"
	case FormEditStore:
		return "edit-store"
	case FormCreateCard:
		return "create-card"
	case FormEditCard:
		return "edit-card"
	case FormCreateUser:
		return "create-user"
	case FormEditUser:
		return "edit-user"
	default:
		return "unknown"
	}
}

// FormKindFromString maps an operation tag to its kind. Unrecognized tags map
// to FormUnknown, which resolves to an empty field set.
func FormKindFromString(tag string) FormKind {
	switch tag {
	case "create-store":
		return FormCreateStore
	case "edit-store":
		return FormEditStore
	case "create-card":
		return FormCreateCard
	case "edit-card":
		return FormEditCard
	case "create-user":
		return FormCreateUser
	case "edit-user":
		return FormEditUser
	default:
		return FormUnknown
	}
}

// FieldKind enumerates the input widgets a field descriptor can ask for.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldEmail  FieldKind = "email"
	FieldNumber FieldKind = "number"
	FieldSelect FieldKind = "select"
	FieldFile   FieldKind = "file"
)

// FieldSpec describes one input in a form's field set.
type FieldSpec struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Options []string  `json:"options,omitempty"`
}

// FieldSet resolves the title and ordered field descriptors for a kind. The
// unknown kind keeps the defensive empty-form default.
func FieldSet(kind FormKind) (string, []FieldSpec) {
	switch kind {
	case FormCreateStore:
		return "Create Gift Card Store", storeFields()
	case FormEditStore:
		return "Edit Gift Card Store", storeFields()
	case FormCreateCard:
		return "Create Gift Card", cardFields()
	case FormEditCard:
		return "Edit Gift Card", cardFields()
	case FormCreateUser:
		return "Add User", userFields()
	case FormEditUser:
		return "Edit User", userFields()
	default:
		log.Printf("level=warn component=form msg=\"unknown form kind; resolving empty field set\" kind=%d", kind)
		return "Form", nil
	}
}

func storeFields() []FieldSpec {
	return []FieldSpec{
		{Name: "name", Label: "Store Name", Kind: FieldText},
		{Name: "category", Label: "Category", Kind: FieldSelect, Options: domain.StoreCategories},
		{Name: "image", Label: "Store Image", Kind: FieldFile},
	}
}

func cardFields() []FieldSpec {
	return []FieldSpec{
		{Name: "type", Label: "Card Type", Kind: FieldSelect, Options: domain.CardTypes},
		{Name: "name", Label: "Card Name", Kind: FieldText},
		{Name: "rate", Label: "Rate ($)", Kind: FieldNumber},
	}
}

func userFields() []FieldSpec {
	return []FieldSpec{
		{Name: "name", Label: "Full Name", Kind: FieldText},
		{Name: "email", Label: "Email", Kind: FieldEmail},
		{Name: "phone", Label: "Phone", Kind: FieldText},
		{Name: "status", Label: "Status", Kind: FieldSelect, Options: []string{"active", "inactive"}},
	}
}

// FormService is the slice of the marketplace client the orchestrator submits
// through. User create/edit have no backend endpoint; they complete locally
// through the done callback.
type FormService interface {
	CreateStore(ctx context.Context, payload domain.StorePayload) (*domain.Store, error)
	UpdateStore(ctx context.Context, id int64, payload domain.StorePayload) (*domain.Store, error)
	CreateCard(ctx context.Context, payload domain.CardPayload) (*domain.Card, error)
	UpdateCard(ctx context.Context, id int64, payload domain.CardPayload) (*domain.Card, error)
}

// FormResult is handed to the done callback after a successful submission.
// Exactly one of the entity fields is set, matching the form kind.
type FormResult struct {
	Kind  FormKind
	Store *domain.Store
	Card  *domain.Card
	User  *domain.UserPayload
	// UserID targets the local patch for edit-user results.
	UserID int64
}

// CardRow is one repeatable card sub-entry inside a store form. Key is a
// temporary list key only and never reaches the backend.
type CardRow struct {
	Key  string `json:"key"`
	Type string `json:"type"`
	Name string `json:"name"`
	Rate string `json:"rate"`
}

type formState int

const (
	formIdle formState = iota
	formSubmitting
	formSucceeded
	formClosed
)

// Form is one modal instance. All exported methods are safe for concurrent
// use; the network call runs without the lock held so Close and readers stay
// responsive while a request is in flight.
type Form struct {
	mu sync.Mutex

	kind   FormKind
	svc    FormService
	stores []domain.Store

	editID int64
	values map[string]string

	cards []CardRow

	storeQuery  string
	storeID     int64
	storeName   string
	storePinned bool

	imageName    string
	imageData    []byte
	imagePreview string
	imagePending bool

	state      formState
	errMsg     string
	successMsg string

	successDelay time.Duration
	onDone       func(FormResult)
	onClose      func()
}

// FormConfig carries the caller-supplied collaborators for a form instance.
type FormConfig struct {
	Service FormService
	// Stores is the in-memory store collection, used by card forms for the
	// searchable store picker.
	Stores []domain.Store
	// SuccessDelay is the pause between the success notice and the done
	// callback. Zero fires the callback immediately.
	SuccessDelay time.Duration
	OnDone       func(FormResult)
	OnClose      func()
}

// NewForm creates a form for the given operation kind. Store forms start with
// exactly one blank card sub-entry.
func NewForm(kind FormKind, cfg FormConfig) *Form {
	f := &Form{
		kind:         kind,
		svc:          cfg.Service,
		stores:       cfg.Stores,
		values:       make(map[string]string),
		successDelay: cfg.SuccessDelay,
		onDone:       cfg.OnDone,
		onClose:      cfg.OnClose,
	}
	if kind == FormCreateStore || kind == FormEditStore {
		f.cards = []CardRow{{Key: uuid.NewString()}}
	}
	return f
}

// PrefillStore seeds an edit-store form from the current entity and its cards.
func (f *Form) PrefillStore(store domain.Store, cards []domain.Card) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editID = store.ID
	f.values["name"] = store.Name
	f.values["category"] = store.Category
	if len(cards) > 0 {
		rows := make([]CardRow, 0, len(cards))
		for _, c := range cards {
			rows = append(rows, CardRow{Key: uuid.NewString(), Type: c.Type, Name: c.Name, Rate: string(c.Rate)})
		}
		f.cards = rows
	}
}

// PrefillCard seeds an edit-card form. The store selection carries over from
// the entity and stays pinned until the operator types a new query.
func (f *Form) PrefillCard(card domain.Card) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editID = card.ID
	f.values["type"] = card.Type
	f.values["name"] = card.Name
	f.values["rate"] = string(card.Rate)
	f.storeID = card.Store.ID
	f.storeName = card.Store.Name
	f.storeQuery = card.Store.Name
	f.storePinned = true
}

// PrefillUser seeds an edit-user form.
func (f *Form) PrefillUser(user domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editID = user.ID
	f.values["name"] = user.FullName
	f.values["email"] = user.Email
	f.values["phone"] = user.PhoneNumber
}

// SetValue records one field's current input.
func (f *Form) SetValue(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
}

// Value returns one field's current input.
func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// CardRows returns a copy of the current card sub-entries.
func (f *Form) CardRows() []CardRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]CardRow, len(f.cards))
	copy(rows, f.cards)
	return rows
}

// AddCardRow appends a blank card sub-entry.
func (f *Form) AddCardRow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, CardRow{Key: uuid.NewString()})
}

// SetCardRow updates the sub-entry at index. Out-of-range indices are ignored.
func (f *Form) SetCardRow(index int, cardType, name, rate string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.cards) {
		return
	}
	f.cards[index].Type = cardType
	f.cards[index].Name = name
	f.cards[index].Rate = rate
}

// RemoveCardRow removes the sub-entry at index. Removal is a no-op when only
// one entry remains; a store form always keeps at least one row. Indices are
// positional: removing entry k shifts later entries down.
func (f *Form) RemoveCardRow(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cards) <= 1 || index < 0 || index >= len(f.cards) {
		return
	}
	f.cards = append(f.cards[:index], f.cards[index+1:]...)
}

// SetStoreQuery records the store picker's filter text. Typing after a
// selection unpins the selected store but keeps the new text as the filter.
func (f *Form) SetStoreQuery(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeQuery = query
	f.storePinned = false
	f.storeID = 0
	f.storeName = ""
}

// MatchingStores filters the in-memory store collection by case-insensitive
// substring match on name.
func (f *Form) MatchingStores() []domain.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	query := strings.ToLower(strings.TrimSpace(f.storeQuery))
	if query == "" {
		out := make([]domain.Store, len(f.stores))
		copy(out, f.stores)
		return out
	}
	var out []domain.Store
	for _, s := range f.stores {
		if strings.Contains(strings.ToLower(s.Name), query) {
			out = append(out, s)
		}
	}
	return out
}

// SelectStore pins a store from the picker and shows its name as the query
// text.
func (f *Form) SelectStore(store domain.Store) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeID = store.ID
	f.storeName = store.Name
	f.storeQuery = store.Name
	f.storePinned = true
}

// SelectedStore returns the pinned store id and whether one is pinned.
func (f *Form) SelectedStore() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeID, f.storePinned
}

// StoreQuery returns the picker's current filter text.
func (f *Form) StoreQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeQuery
}

// AttachImage starts the asynchronous read of a selected image. The preview
// (a data URL) and the raw bytes land on the form only when the read
// completes; a submit racing ahead of completion simply omits the image.
// The done channel closes when the decode settles; callers that do not care
// may ignore it.
func (f *Form) AttachImage(name string, r io.Reader) <-chan struct{} {
	f.mu.Lock()
	f.imagePending = true
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		data, err := io.ReadAll(r)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.imagePending = false
		if f.state == formClosed {
			return
		}
		if err != nil {
			log.Printf("level=warn component=form msg=\"image read failed; upload skipped\" file=%q err=%v", name, err)
			return
		}
		f.imageName = name
		f.imageData = data
		mime := http.DetectContentType(data)
		f.imagePreview = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	}()
	return done
}

// ImagePreview returns the decoded preview data URL, or "" while absent.
func (f *Form) ImagePreview() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imagePreview
}

// ImageDecodePending reports whether an attached image is still being read.
func (f *Form) ImageDecodePending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imagePending
}

// ErrorMessage returns the current inline error, or "".
func (f *Form) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// SuccessMessage returns the current success notice, or "".
func (f *Form) SuccessMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successMsg
}

// Submitting reports whether a request is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == formSubmitting
}

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission has not settled.
var ErrSubmitInFlight = errors.New("form: submission already in flight")

// Submit runs the submit protocol: clear messages, validate, call the
// backend, record the outcome. Validation failures set the inline error and
// return nil without any network call. The done callback fires after the
// configured success delay; closing remains the caller's responsibility.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case formSubmitting:
		f.mu.Unlock()
		return ErrSubmitInFlight
	case formSucceeded, formClosed:
		f.mu.Unlock()
		return nil
	}

	f.errMsg = ""
	f.successMsg = ""

	if msg := f.validateLocked(); msg != "" {
		f.errMsg = msg
		f.mu.Unlock()
		return nil
	}

	kind := f.kind
	f.state = formSubmitting
	f.mu.Unlock()

	result, submitErr := f.performSubmit(ctx, kind)

	f.mu.Lock()
	if f.state == formClosed {
		// The view was torn down while the request was in flight; drop the
		// outcome rather than touching dead state.
		f.mu.Unlock()
		return nil
	}
	if submitErr != nil {
		f.state = formIdle
		f.errMsg = marketplace.ErrorMessage(submitErr, submitFallback(kind))
		f.mu.Unlock()
		return nil
	}
	f.state = formSucceeded
	f.successMsg = successNotice(kind)
	onDone := f.onDone
	delay := f.successDelay
	f.mu.Unlock()

	if onDone != nil {
		if delay > 0 {
			time.AfterFunc(delay, func() { onDone(result) })
		} else {
			onDone(result)
		}
	}
	return nil
}

func (f *Form) performSubmit(ctx context.Context, kind FormKind) (FormResult, error) {
	switch kind {
	case FormCreateStore, FormEditStore:
		payload := f.buildStorePayload()
		var (
			store *domain.Store
			err   error
		)
		if kind == FormCreateStore {
			store, err = f.svc.CreateStore(ctx, payload)
		} else {
			store, err = f.svc.UpdateStore(ctx, f.editID, payload)
		}
		return FormResult{Kind: kind, Store: store}, err
	case FormCreateCard, FormEditCard:
		payload := f.buildCardPayload()
		var (
			card *domain.Card
			err  error
		)
		if kind == FormCreateCard {
			card, err = f.svc.CreateCard(ctx, payload)
		} else {
			card, err = f.svc.UpdateCard(ctx, f.editID, payload)
		}
		return FormResult{Kind: kind, Card: card}, err
	case FormCreateUser, FormEditUser:
		// No backend endpoint exists for user mutations; the payload goes
		// straight to the caller, which patches its collection locally.
		user := f.buildUserPayload()
		return FormResult{Kind: kind, User: &user, UserID: f.EditID()}, nil
	default:
		return FormResult{Kind: kind}, fmt.Errorf("form kind %q cannot submit", kind)
	}
}

// validateLocked checks required fields in declared order and returns the
// first violation's message, or "". Caller holds f.mu.
func (f *Form) validateLocked() string {
	switch f.kind {
	case FormCreateStore, FormEditStore:
		if strings.TrimSpace(f.values["name"]) == "" {
			return "Store name is required"
		}
		if strings.TrimSpace(f.values["category"]) == "" {
			return "Category is required"
		}
		if !f.hasCompleteCardRowLocked() {
			return "At least one gift card with a name and rate is required"
		}
		for _, row := range f.cards {
			if strings.TrimSpace(row.Name) == "" && strings.TrimSpace(row.Rate) == "" {
				continue
			}
			if _, err := domain.ParseRate(row.Rate); err != nil {
				return "Card rate must be a non-negative number"
			}
		}
		return ""
	case FormCreateCard, FormEditCard:
		if strings.TrimSpace(f.values["type"]) == "" {
			return "Card type is required"
		}
		if strings.TrimSpace(f.values["name"]) == "" {
			return "Card name is required"
		}
		if strings.TrimSpace(f.values["rate"]) == "" {
			return "Rate is required"
		}
		if _, err := domain.ParseRate(f.values["rate"]); err != nil {
			return "Rate must be a non-negative number"
		}
		if !f.storePinned {
			return "A store must be selected"
		}
		return ""
	case FormCreateUser, FormEditUser:
		if strings.TrimSpace(f.values["name"]) == "" {
			return "Full name is required"
		}
		if strings.TrimSpace(f.values["email"]) == "" {
			return "Email is required"
		}
		return ""
	default:
		return "This form cannot be submitted"
	}
}

func (f *Form) hasCompleteCardRowLocked() bool {
	for _, row := range f.cards {
		if strings.TrimSpace(row.Name) != "" && strings.TrimSpace(row.Rate) != "" {
			return true
		}
	}
	return false
}

func (f *Form) buildStorePayload() domain.StorePayload {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make([]domain.CardEntry, 0, len(f.cards))
	for _, row := range f.cards {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Rate) == "" {
			continue
		}
		rate, err := domain.ParseRate(row.Rate)
		if err != nil {
			continue
		}
		entries = append(entries, domain.CardEntry{
			Type: row.Type,
			Name: strings.TrimSpace(row.Name),
			Rate: rate,
		})
	}

	return domain.StorePayload{
		Name:      strings.TrimSpace(f.values["name"]),
		Category:  f.values["category"],
		ImageName: f.imageName,
		Image:     f.imageData,
		Cards:     entries,
	}
}

func (f *Form) buildCardPayload() domain.CardPayload {
	f.mu.Lock()
	defer f.mu.Unlock()

	rate, _ := domain.ParseRate(f.values["rate"])
	return domain.CardPayload{
		Type:  f.values["type"],
		Name:  strings.TrimSpace(f.values["name"]),
		Rate:  rate,
		Store: f.storeID,
	}
}

func (f *Form) buildUserPayload() domain.UserPayload {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := f.values["status"]
	if status == "" {
		status = "active"
	}
	return domain.UserPayload{
		FullName:    strings.TrimSpace(f.values["name"]),
		Email:       strings.TrimSpace(f.values["email"]),
		PhoneNumber: strings.TrimSpace(f.values["phone"]),
		Status:      status,
	}
}

// EditID returns the entity id an edit form targets, or 0 for create forms.
func (f *Form) EditID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editID
}

// Kind returns the form's operation kind.
func (f *Form) Kind() FormKind {
	return f.kind
}

// Close discards all transient form state and invokes the close callback.
// Close is refused while a submission is in flight, mirroring the disabled
// close affordance; it succeeds again once the request settles. The success
// notice is kept: it reports the completed submission, not the modal's
// inputs, and it must still be readable after the done callback closes the
// form.
func (f *Form) Close() bool {
	f.mu.Lock()
	if f.state == formSubmitting {
		f.mu.Unlock()
		return false
	}
	if f.state == formClosed {
		f.mu.Unlock()
		return true
	}
	succeeded := f.state == formSucceeded
	f.state = formClosed
	f.values = make(map[string]string)
	f.cards = nil
	if f.kind == FormCreateStore || f.kind == FormEditStore {
		f.cards = []CardRow{{Key: uuid.NewString()}}
	}
	f.storeQuery = ""
	f.storeID = 0
	f.storeName = ""
	f.storePinned = false
	f.imageName = ""
	f.imageData = nil
	f.imagePreview = ""
	f.errMsg = ""
	if !succeeded {
		f.successMsg = ""
	}
	onClose := f.onClose
	f.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return true
}

func submitFallback(kind FormKind) string {
	switch kind {
	case FormCreateStore:
		return "Failed to create store. Please try again."
	case FormEditStore:
		return "Failed to update store. Please try again."
	case FormCreateCard:
		return "Failed to create gift card. Please try again."
	case FormEditCard:
		return "Failed to update gift card. Please try again."
	default:
		return "Failed to submit form. Please try again."
	}
}

func successNotice(kind FormKind) string {
	switch kind {
	case FormCreateStore:
		return "Store created successfully!"
	case FormEditStore:
		return "Store updated successfully!"
	case FormCreateCard:
		return "Gift card created successfully!"
	case FormEditCard:
		return "Gift card updated successfully!"
	case FormCreateUser:
		return "User added successfully!"
	case FormEditUser:
		return "User updated successfully!"
	default:
		return "Saved successfully!"
	}
}
