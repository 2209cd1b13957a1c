package docstore

import (
	"context"
	"testing"
)

func TestMemoryStoreSubscribeDeliversInitialValue(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if err := store.Write(context.Background(), "users/u1/cart/current", Document{"items": []any{}}, false); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got []Document
	cancel, err := store.Subscribe(context.Background(), "users/u1/cart/current", func(doc Document) {
		got = append(got, doc)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if len(got) != 1 {
		t.Fatalf("expected one immediate snapshot, got %d", len(got))
	}
	if got[0] == nil {
		t.Fatalf("expected stored document, got nil")
	}
}

func TestMemoryStoreSubscribeAbsentDocumentIsNil(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	var got []Document
	cancel, err := store.Subscribe(context.Background(), "users/u2/cart/current", func(doc Document) {
		got = append(got, doc)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if len(got) != 1 || got[0] != nil {
		t.Fatalf("absent document must surface as nil, got %v", got)
	}
}

func TestMemoryStoreMergePreservesUnnamedFields(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	path := "users/u3/cart/current"
	if err := store.Write(context.Background(), path, Document{"items": []any{"a"}, "promo": "FREESODA"}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Write(context.Background(), path, Document{"items": []any{"b"}}, true); err != nil {
		t.Fatalf("merge write: %v", err)
	}

	doc := store.Read(path)
	if doc["promo"] != "FREESODA" {
		t.Fatalf("merge write must preserve unnamed fields, got %v", doc)
	}
}

func TestMemoryStoreCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	path := "users/u4/cart/current"

	calls := 0
	cancel, err := store.Subscribe(context.Background(), path, func(Document) { calls++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	if err := store.Write(context.Background(), path, Document{"items": []any{}}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected only the initial delivery after cancel, got %d", calls)
	}
}
