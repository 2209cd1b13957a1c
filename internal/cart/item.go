package cart

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one configured product selection in the cart. ID is the
// composite identity of product, size, crust and notes, so two different
// configurations of the same pizza occupy separate lines.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Crust     string          `json:"crust,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// LineID builds the composite line identity for a product configuration.
func LineID(productID, size, crust, notes string) string {
	parts := []string{strings.TrimSpace(productID)}
	for _, part := range []string{size, crust, notes} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "-")
}

// Subtotal is unit price times quantity for this line.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the subtotals of all lines.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CloneItems copies a line list so callers cannot alias store-owned state.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// fingerprintLine is the canonical projection of a line used for change
// detection. Prices are normalized to their shortest decimal form so two
// representations of the same amount compare equal.
type fingerprintLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Crust     string `json:"crust,omitempty"`
	Notes     string `json:"notes,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Fingerprint returns a canonical serialization of the line list. Equal
// carts always produce equal fingerprints regardless of how they were
// decoded, which makes the value safe to use as a sync watermark.
func Fingerprint(items []LineItem) string {
	lines := make([]fingerprintLine, len(items))
	for n, item := range items {
		lines[n] = fingerprintLine{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Crust:     item.Crust,
			Notes:     item.Notes,
			ImageURL:  item.ImageURL,
		}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		// Marshalling a slice of plain strings and ints cannot fail.
		return ""
	}
	return string(payload)
}
