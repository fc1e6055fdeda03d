package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseRate validates a user-entered decimal amount (a card rate or a
// withdrawal amount) and returns it as a json.Number carrying the exact
// trimmed input, so resubmitting never truncates precision.
func ParseRate(raw string) (json.Number, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", trimmed, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("amount %q must not be negative", trimmed)
	}
	return json.Number(trimmed), nil
}

// FormatAmount renders a backend decimal with exactly two fraction digits for
// display, e.g. "30" -> "30.00".
func FormatAmount(n json.Number) string {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return string(n)
	}
	return d.StringFixed(2)
}
