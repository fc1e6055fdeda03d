package marketplace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giftmart/console-service/internal/domain"
)

func TestCreateStoreSendsMultipartForm(t *testing.T) {
	var (
		gotName     string
		gotCategory string
		gotCards    string
		gotImage    []byte
		gotFilename string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/create-gift-store/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("expected a multipart body: %v", err)
		}
		gotName = r.FormValue("name")
		gotCategory = r.FormValue("category")
		gotCards = r.FormValue("cards")

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			gotFilename = header.Filename
			gotImage, _ = io.ReadAll(file)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 7, "name": "Amazon", "category": "Popular"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	store, err := client.CreateStore(context.Background(), domain.StorePayload{
		Name:      "Amazon",
		Category:  "Popular",
		ImageName: "logo.png",
		Image:     []byte{0x89, 0x50, 0x4e, 0x47},
		Cards: []domain.CardEntry{
			{Type: "Physical", Name: "Amazon $50", Rate: "30"},
			{Type: "E-code", Name: "Amazon $25", Rate: "27.5"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ID != 7 {
		t.Fatalf("expected the created store decoded, got %+v", store)
	}

	if gotName != "Amazon" || gotCategory != "Popular" {
		t.Fatalf("unexpected form fields name=%q category=%q", gotName, gotCategory)
	}
	if gotFilename != "logo.png" || len(gotImage) != 4 {
		t.Fatalf("unexpected image part filename=%q bytes=%d", gotFilename, len(gotImage))
	}

	// The card rows travel as one JSON field with numeric rates, preserving
	// the operator's exact input.
	if !strings.Contains(gotCards, `"rate":30`) {
		t.Fatalf("expected an unquoted numeric rate in %q", gotCards)
	}
	if !strings.Contains(gotCards, `"rate":27.5`) {
		t.Fatalf("expected the decimal rate preserved in %q", gotCards)
	}

	var entries []domain.CardEntry
	if err := json.Unmarshal([]byte(gotCards), &entries); err != nil {
		t.Fatalf("cards field must be a JSON array: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Amazon $50" {
		t.Fatalf("unexpected card entries %+v", entries)
	}
}

func TestCreateStoreWithoutImageOrCards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("expected a multipart body: %v", err)
		}
		if _, _, err := r.FormFile("image"); err == nil {
			t.Errorf("expected no image part")
		}
		if got := r.FormValue("cards"); got != "[]" {
			t.Errorf("expected an empty JSON array for cards, got %q", got)
		}
		w.Write([]byte(`{"id": 8}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	if _, err := client.CreateStore(context.Background(), domain.StorePayload{Name: "Steam", Category: "Shopping"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateStoreUsesPutOnDetailPath(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"id": 3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	if _, err := client.UpdateStore(context.Background(), 3, domain.StorePayload{Name: "Steam", Category: "Shopping"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/admin/get-gift-store/3/" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestCreateCardSendsNumericRate(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/create-gift-card/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected a JSON body, got %q", got)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 20, "type": "Physical", "name": "Amazon $50", "rate": 30, "store": {"id": 1, "name": "Amazon"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	card, err := client.CreateCard(context.Background(), domain.CardPayload{
		Type:  "Physical",
		Name:  "Amazon $50",
		Rate:  "30",
		Store: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(string(gotBody), `"rate":30`) {
		t.Fatalf("expected an unquoted numeric rate in body %q", gotBody)
	}
	if !strings.Contains(string(gotBody), `"store":1`) {
		t.Fatalf("expected the store id in body %q", gotBody)
	}
	if card.Store.ID != 1 || string(card.Rate) != "30" {
		t.Fatalf("unexpected decoded card %+v", card)
	}
}

func TestDeleteCardTargetsDetailPath(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	if err := client.DeleteCard(context.Background(), 11); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/admin/get-gift-card/11/" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestPatchStoreKeepsMultipartShape(t *testing.T) {
	var gotMethod, gotPath, gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("expected a multipart body: %v", err)
		}
		gotName = r.FormValue("name")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 3, "name": "Steam", "category": "Gaming"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	store, err := client.PatchStore(context.Background(), 3, domain.StorePayload{
		Name:     "Steam",
		Category: "Gaming",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/admin/get-gift-store/3/" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotName != "Steam" {
		t.Fatalf("expected name field in form, got %q", gotName)
	}
	if store.ID != 3 {
		t.Fatalf("expected decoded store, got %+v", store)
	}
}

func TestPatchCardTargetsDetailPath(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 11, "type": "Physical", "name": "Amazon $25", "rate": 27.5, "store": {"id": 1, "name": "Amazon"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens("t"), time.Second)
	card, err := client.PatchCard(context.Background(), 11, domain.CardPayload{
		Type:  "Physical",
		Name:  "Amazon $25",
		Rate:  json.Number("27.5"),
		Store: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/admin/get-gift-card/11/" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(gotBody, `"rate":27.5`) {
		t.Fatalf("expected numeric rate in body, got %s", gotBody)
	}
	if card.ID != 11 {
		t.Fatalf("expected decoded card, got %+v", card)
	}
}
