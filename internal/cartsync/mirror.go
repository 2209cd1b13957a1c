package cartsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/massaviva/massaviva-backend/internal/cart"
	"github.com/massaviva/massaviva-backend/pkg/docstore"
)

const (
	fieldItems     = "items"
	fieldUpdatedAt = "updatedAt"
)

// CartDocumentPath returns the mirror document path for an identity.
func CartDocumentPath(uid string) string {
	return "users/" + uid + "/cart/current"
}

// encodeDocument builds the merge payload for a push. Only the cart fields
// are named so a merge write preserves unrelated fields on the document.
func encodeDocument(items []cart.LineItem, now time.Time) docstore.Document {
	list := cart.CloneItems(items)
	if list == nil {
		// A cleared cart must serialize as an empty list, not null; a null
		// items field reads back as "no data".
		list = []cart.LineItem{}
	}
	return docstore.Document{
		fieldItems:     list,
		fieldUpdatedAt: now.UTC().Format(time.RFC3339),
	}
}

// decodeRemote interprets a subscription snapshot. A nil document, or one
// without an items field, is "no data" rather than an empty cart.
func decodeRemote(doc docstore.Document) (RemoteState, error) {
	if doc == nil {
		return RemoteState{}, nil
	}
	raw, ok := doc[fieldItems]
	if !ok || raw == nil {
		return RemoteState{}, nil
	}

	// The document may carry typed line items (in-memory store) or decoded
	// JSON values (redis store); a round-trip normalizes both.
	payload, err := json.Marshal(raw)
	if err != nil {
		return RemoteState{}, fmt.Errorf("encode remote items: %w", err)
	}
	var items []cart.LineItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return RemoteState{}, fmt.Errorf("decode remote items: %w", err)
	}
	return RemoteState{Exists: true, Items: items}, nil
}
