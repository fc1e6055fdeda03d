/**
 * @description
 * Store and gift-card endpoints of the marketplace admin API. Store
 * create/update bodies are multipart (the store image is a binary upload and
 * the nested card rows travel as one JSON-encoded "cards" field); card
 * create/update bodies are plain JSON.
 */

package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/giftmart/console-service/internal/domain"
)

// ListStores fetches all gift-card stores.
func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var stores []domain.Store
	if err := c.getJSON(ctx, "/admin/list-gift-stores/", &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// GetStore fetches one store by id.
func (c *Client) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	var store domain.Store
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/get-gift-store/%d/", id), &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// CreateStore posts a new store as multipart form data.
func (c *Client) CreateStore(ctx context.Context, payload domain.StorePayload) (*domain.Store, error) {
	return c.sendStoreForm(ctx, http.MethodPost, "/admin/create-gift-store/", payload)
}

// UpdateStore replaces an existing store via PUT with the same multipart shape.
func (c *Client) UpdateStore(ctx context.Context, id int64, payload domain.StorePayload) (*domain.Store, error) {
	return c.sendStoreForm(ctx, http.MethodPut, fmt.Sprintf("/admin/get-gift-store/%d/", id), payload)
}

// PatchStore partially updates an existing store.
func (c *Client) PatchStore(ctx context.Context, id int64, payload domain.StorePayload) (*domain.Store, error) {
	return c.sendStoreForm(ctx, http.MethodPatch, fmt.Sprintf("/admin/get-gift-store/%d/", id), payload)
}

// DeleteStore removes a store by id.
func (c *Client) DeleteStore(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/get-gift-store/%d/", id))
}

func (c *Client) sendStoreForm(ctx context.Context, method, path string, payload domain.StorePayload) (*domain.Store, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("name", payload.Name); err != nil {
		return nil, fmt.Errorf("failed to write store form: %w", err)
	}
	if err := writer.WriteField("category", payload.Category); err != nil {
		return nil, fmt.Errorf("failed to write store form: %w", err)
	}

	if payload.ImageName != "" {
		part, err := writer.CreateFormFile("image", payload.ImageName)
		if err != nil {
			return nil, fmt.Errorf("failed to attach store image: %w", err)
		}
		if _, err := part.Write(payload.Image); err != nil {
			return nil, fmt.Errorf("failed to attach store image: %w", err)
		}
	}

	// Card rows are sent as one JSON array field, not repeated form fields.
	cards := payload.Cards
	if cards == nil {
		cards = []domain.CardEntry{}
	}
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card entries: %w", err)
	}
	if err := writer.WriteField("cards", string(cardsJSON)); err != nil {
		return nil, fmt.Errorf("failed to write store form: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize store form: %w", err)
	}

	var store domain.Store
	if err := c.do(ctx, method, path, writer.FormDataContentType(), &buf, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// ListCards fetches all gift cards across all stores.
func (c *Client) ListCards(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	if err := c.getJSON(ctx, "/admin/list-gift-cards/", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard fetches one gift card by id.
func (c *Client) GetCard(ctx context.Context, id int64) (*domain.Card, error) {
	var card domain.Card
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/get-gift-card/%d/", id), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard posts a new gift card.
func (c *Client) CreateCard(ctx context.Context, payload domain.CardPayload) (*domain.Card, error) {
	var card domain.Card
	if err := c.sendJSON(ctx, http.MethodPost, "/admin/create-gift-card/", payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard replaces an existing gift card.
func (c *Client) UpdateCard(ctx context.Context, id int64, payload domain.CardPayload) (*domain.Card, error) {
	var card domain.Card
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/admin/get-gift-card/%d/", id), payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// PatchCard partially updates an existing gift card.
func (c *Client) PatchCard(ctx context.Context, id int64, payload domain.CardPayload) (*domain.Card, error) {
	var card domain.Card
	if err := c.sendJSON(ctx, http.MethodPatch, fmt.Sprintf("/admin/get-gift-card/%d/", id), payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a gift card by id.
func (c *Client) DeleteCard(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/get-gift-card/%d/", id))
}
