package cartsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/massaviva/massaviva-backend/internal/cart"
	"github.com/massaviva/massaviva-backend/internal/identity"
	"github.com/massaviva/massaviva-backend/pkg/docstore"
	"github.com/shopspring/decimal"
)

// countingStore counts Write calls so tests can assert on suppressed pushes.
type countingStore struct {
	*docstore.MemoryStore
	writes atomic.Int64
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: docstore.NewMemoryStore()}
}

func (c *countingStore) Write(ctx context.Context, path string, data docstore.Document, merge bool) error {
	c.writes.Add(1)
	return c.MemoryStore.Write(ctx, path, data, merge)
}

// failingStore rejects the first failures writes, then delegates.
type failingStore struct {
	*docstore.MemoryStore
	failures atomic.Int64
	attempts atomic.Int64
}

func (f *failingStore) Write(ctx context.Context, path string, data docstore.Document, merge bool) error {
	f.attempts.Add(1)
	if f.failures.Add(-1) >= 0 {
		return errors.New("mirror unavailable")
	}
	return f.MemoryStore.Write(ctx, path, data, merge)
}

func newSyncFixture(t *testing.T, docs docstore.Store) (*cart.Store, *identity.MemoryProvider, *Synchronizer) {
	t.Helper()

	store := cart.NewStore(context.Background(), nil, nil)
	ids := identity.NewMemoryProvider()
	sync, err := New(Params{Store: store, Docs: docs, Identity: ids})
	if err != nil {
		t.Fatalf("new synchronizer: %v", err)
	}
	sync.Start()
	t.Cleanup(sync.Stop)
	return store, ids, sync
}

// settle drains the event queue including cascades (identity -> remote ->
// apply -> local echo is the deepest chain).
func settle(s *Synchronizer) {
	for i := 0; i < 3; i++ {
		s.flush()
	}
}

func marg(qty int) cart.LineItem {
	return cart.LineItem{
		ID:        "p1-M-Trad",
		Name:      "Margherita",
		UnitPrice: decimal.RequireFromString("32.00"),
		Quantity:  qty,
	}
}

func quatro(qty int) cart.LineItem {
	return cart.LineItem{
		ID:        "p4-G-Trad",
		Name:      "Quatro Queijos",
		UnitPrice: decimal.RequireFromString("49.00"),
		Quantity:  qty,
	}
}

func TestNewDeviceLoginAdoptsRemoteWithoutEcho(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	seed := encodeDocumentForTest(t, []cart.LineItem{marg(2)})
	if err := docs.MemoryStore.Write(context.Background(), CartDocumentPath("u1"), seed, false); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	store, ids, sync := newSyncFixture(t, docs)

	ids.SignIn("u1")
	settle(sync)

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("remote cart must be applied locally, got %+v", items)
	}
	if got := store.Total(); !got.Equal(decimal.RequireFromString("64.00")) {
		t.Fatalf("expected total 64.00, got %s", got)
	}
	if got := docs.writes.Load(); got != 0 {
		t.Fatalf("a remote-applied update must not be pushed back, got %d writes", got)
	}
}

func TestOfflineCartPushedOnFirstSignIn(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	store, ids, sync := newSyncFixture(t, docs)

	// Unauthenticated mutations stay local.
	store.AddItem(marg(1))
	settle(sync)
	if got := docs.writes.Load(); got != 0 {
		t.Fatalf("standalone store must not write the mirror, got %d writes", got)
	}

	ids.SignIn("u2")
	settle(sync)

	if got := len(store.Items()); got != 1 {
		t.Fatalf("absent mirror must not wipe the local cart, got %d lines", got)
	}
	if got := docs.writes.Load(); got != 1 {
		t.Fatalf("expected exactly one adopting push, got %d", got)
	}
	doc := docs.Read(CartDocumentPath("u2"))
	if doc == nil || doc["items"] == nil {
		t.Fatalf("mirror must hold the adopted cart, got %v", doc)
	}
	if _, ok := doc["updatedAt"].(string); !ok {
		t.Fatalf("mirror document must carry a last-write timestamp, got %v", doc)
	}
}

func TestLocalMutationPushesOnceAndEchoIsSuppressed(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	store, ids, sync := newSyncFixture(t, docs)

	ids.SignIn("u3")
	settle(sync)

	store.AddItem(quatro(1))
	settle(sync)

	if got := docs.writes.Load(); got != 1 {
		t.Fatalf("one mutation must produce one push, got %d", got)
	}

	store.UpdateQuantity(quatro(1).ID, 3)
	settle(sync)
	if got := docs.writes.Load(); got != 2 {
		t.Fatalf("quantity change must push once more, got %d", got)
	}
}

func TestConvergenceRemoteWinsAtSubscriptionStart(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	seed := encodeDocumentForTest(t, []cart.LineItem{quatro(1)})
	if err := docs.MemoryStore.Write(context.Background(), CartDocumentPath("u4"), seed, false); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	store, ids, sync := newSyncFixture(t, docs)
	store.AddItem(marg(1))
	settle(sync)

	ids.SignIn("u4")
	settle(sync)

	items := store.Items()
	if len(items) != 1 || items[0].ID != quatro(1).ID {
		t.Fatalf("both sides must converge on the remote snapshot, got %+v", items)
	}
	if got := docs.writes.Load(); got != 0 {
		t.Fatalf("convergence must not bounce the snapshot back, got %d writes", got)
	}
}

func TestExistingEmptyMirrorClearsLocalCart(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	seed := encodeDocumentForTest(t, []cart.LineItem{})
	if err := docs.MemoryStore.Write(context.Background(), CartDocumentPath("u5"), seed, false); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	store, ids, sync := newSyncFixture(t, docs)
	store.AddItem(marg(1))
	settle(sync)

	ids.SignIn("u5")
	settle(sync)

	if got := len(store.Items()); got != 0 {
		t.Fatalf("an existing empty mirror is real data and must win, got %d lines", got)
	}
}

func TestRemoteChangeAppliedWhileSubscribed(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	store, ids, sync := newSyncFixture(t, docs)

	ids.SignIn("u6")
	settle(sync)

	update := encodeDocumentForTest(t, []cart.LineItem{marg(5)})
	if err := docs.MemoryStore.Write(context.Background(), CartDocumentPath("u6"), update, false); err != nil {
		t.Fatalf("external write: %v", err)
	}
	settle(sync)

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("external mirror update must overwrite local state, got %+v", items)
	}
	if got := docs.writes.Load(); got != 0 {
		t.Fatalf("applying a remote update must not re-push it, got %d writes", got)
	}
}

func TestPushFailureRetriedByNextLocalChange(t *testing.T) {
	t.Parallel()

	docs := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	docs.failures.Store(1)

	store, ids, sync := newSyncFixture(t, docs)
	ids.SignIn("u7")
	settle(sync)

	store.AddItem(marg(1))
	settle(sync)
	if doc := docs.Read(CartDocumentPath("u7")); doc != nil {
		t.Fatalf("first push should have failed, mirror holds %v", doc)
	}

	// The watermark did not advance, so the next mutation pushes again.
	store.AddItem(quatro(1))
	settle(sync)

	doc := docs.Read(CartDocumentPath("u7"))
	if doc == nil {
		t.Fatalf("retry push did not reach the mirror")
	}
	if got := docs.attempts.Load(); got != 2 {
		t.Fatalf("expected 2 push attempts, got %d", got)
	}
	if got := len(store.Items()); got != 2 {
		t.Fatalf("failed pushes must not disturb local state, got %d lines", got)
	}
}

func TestSignOutStopsSyncInBothDirections(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	store, ids, sync := newSyncFixture(t, docs)

	ids.SignIn("u8")
	settle(sync)
	store.AddItem(marg(1))
	settle(sync)
	writesWhileSignedIn := docs.writes.Load()

	ids.SignOut()
	settle(sync)

	// Remote changes no longer reach the store.
	update := encodeDocumentForTest(t, []cart.LineItem{quatro(9)})
	if err := docs.MemoryStore.Write(context.Background(), CartDocumentPath("u8"), update, false); err != nil {
		t.Fatalf("external write: %v", err)
	}
	settle(sync)
	if got := store.Items(); len(got) != 1 || got[0].ID != marg(1).ID {
		t.Fatalf("signed-out store must ignore mirror changes, got %+v", got)
	}

	// Local changes no longer reach the mirror.
	store.AddItem(quatro(1))
	settle(sync)
	if got := docs.writes.Load(); got != writesWhileSignedIn+1 {
		t.Fatalf("signed-out mutations must not push, got %d writes", got)
	}
}

func TestMergeWritePreservesUnrelatedMirrorFields(t *testing.T) {
	t.Parallel()

	docs := newCountingStore()
	path := CartDocumentPath("u9")
	if err := docs.MemoryStore.Write(context.Background(), path, docstore.Document{"loyaltyTier": "gold"}, false); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	store, ids, sync := newSyncFixture(t, docs)
	store.AddItem(marg(1))
	settle(sync)
	ids.SignIn("u9")
	settle(sync)

	doc := docs.Read(path)
	if doc["loyaltyTier"] != "gold" {
		t.Fatalf("cart pushes must merge, not replace the document: %v", doc)
	}
	if doc["items"] == nil {
		t.Fatalf("cart push missing from mirror: %v", doc)
	}
}

func encodeDocumentForTest(t *testing.T, items []cart.LineItem) docstore.Document {
	t.Helper()
	return docstore.Document{
		"items":     items,
		"updatedAt": "2026-08-01T12:00:00Z",
	}
}
