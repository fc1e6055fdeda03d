/**
 * @description
 * This file defines the domain models for gift-card stores and the cards that
 * belong to them. These structs mirror the marketplace backend's list and
 * detail payloads; the console never persists them: every copy held locally
 * is a cache of remote state.
 *
 * @notes
 * - Rates are carried as json.Number so the exact string the operator typed
 *   survives a round trip back to the backend. Display formatting and the
 *   non-negativity check live in money.go.
 */

package domain

import "encoding/json"

// StoreCategories is the fixed category enumeration accepted by the backend.
var StoreCategories = []string{"All", "Popular", "Shopping"}

// CardTypes is the fixed card type enumeration accepted by the backend.
var CardTypes = []string{"Both", "Physical", "E-code"}

// Store represents one gift-card merchant as returned by the backend.
// Card counts are never read from this struct; they are derived by filtering
// the card collection against the store id.
type Store struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
}

// StoreRef is the embedded store reference carried on card list responses.
type StoreRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Card represents one purchasable gift-card product belonging to a store.
type Card struct {
	ID    int64       `json:"id"`
	Type  string      `json:"type"`
	Name  string      `json:"name"`
	Rate  json.Number `json:"rate"`
	Store StoreRef    `json:"store"`
}

// CardEntry is one card row inside a store create/edit payload. It is
// serialized into the multipart "cards" field as a JSON array.
type CardEntry struct {
	Type string      `json:"type"`
	Name string      `json:"name"`
	Rate json.Number `json:"rate"`
}

// StorePayload is the outgoing multipart body for store create/update.
// Image carries the raw upload bytes; an empty ImageName means no image part
// is written.
type StorePayload struct {
	Name      string
	Category  string
	ImageName string
	Image     []byte
	Cards     []CardEntry
}

// CardPayload is the outgoing JSON body for card create/update.
type CardPayload struct {
	Type  string      `json:"type"`
	Name  string      `json:"name"`
	Rate  json.Number `json:"rate"`
	Store int64       `json:"store"`
}
