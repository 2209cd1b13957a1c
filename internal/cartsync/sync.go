package cartsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/massaviva/massaviva-backend/internal/cart"
	"github.com/massaviva/massaviva-backend/internal/identity"
	"github.com/massaviva/massaviva-backend/pkg/docstore"
	"github.com/massaviva/massaviva-backend/pkg/logger"
	"github.com/massaviva/massaviva-backend/pkg/metrics"
)

const defaultPushTimeout = 5 * time.Second

// Params wires a Synchronizer to its collaborators.
type Params struct {
	Store    *cart.Store
	Docs     docstore.Store
	Identity identity.Provider
	Logger   *logger.Logger
	Metrics  *metrics.CartSyncMetrics

	// PushTimeout bounds a single remote write. Defaults to 5s.
	PushTimeout time.Duration
}

type eventKind int

const (
	eventIdentity eventKind = iota
	eventLocal
	eventRemote
	eventFlush
	eventShutdown
)

type event struct {
	kind    eventKind
	id      *identity.Identity
	items   []cart.LineItem
	doc     docstore.Document
	gen     int
	flushed chan struct{}
}

// Synchronizer reconciles the local cart store with the remote mirror for
// the signed-in identity. All triggers are funneled through one worker
// goroutine, so reconciliation passes never interleave and the watermark
// needs no locking. Mutating the store never blocks on the network.
type Synchronizer struct {
	store       *cart.Store
	docs        docstore.Store
	ids         identity.Provider
	logg        *logger.Logger
	metrics     *metrics.CartSyncMetrics
	pushTimeout time.Duration

	events  chan event
	stopped chan struct{}

	cancelLocal func()
	cancelID    func()
	startOnce   sync.Once
	stopOnce    sync.Once

	// Worker-owned state; touched only from run().
	uid       string
	gen       int
	watermark string
	remote    RemoteState
	cancelDoc func()
}

// New validates the wiring and builds a stopped Synchronizer.
func New(p Params) (*Synchronizer, error) {
	if p.Store == nil {
		return nil, errors.New("cart store required")
	}
	if p.Docs == nil {
		return nil, errors.New("document store required")
	}
	if p.Identity == nil {
		return nil, errors.New("identity provider required")
	}
	if p.PushTimeout <= 0 {
		p.PushTimeout = defaultPushTimeout
	}
	return &Synchronizer{
		store:       p.Store,
		docs:        p.Docs,
		ids:         p.Identity,
		logg:        p.Logger,
		metrics:     p.Metrics,
		pushTimeout: p.PushTimeout,
		events:      make(chan event, 64),
		stopped:     make(chan struct{}),
	}, nil
}

// Start launches the worker and attaches the local and identity triggers.
// The current identity is processed immediately, so a user already signed
// in at startup gets a subscription without a fresh sign-in event.
func (s *Synchronizer) Start() {
	s.startOnce.Do(func() {
		go s.run()

		s.cancelLocal = s.store.Subscribe(func(items []cart.LineItem) {
			s.events <- event{kind: eventLocal, items: items}
		})
		s.cancelID = s.ids.OnChange(func(id *identity.Identity) {
			s.events <- event{kind: eventIdentity, id: id}
		})
		s.events <- event{kind: eventIdentity, id: s.ids.Current()}
	})
}

// Stop detaches the triggers, tears down any remote subscription and waits
// for the worker to drain. In-flight pushes are left to finish; their effect
// is an idempotent overwrite.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() {
		if s.cancelLocal != nil {
			s.cancelLocal()
		}
		if s.cancelID != nil {
			s.cancelID()
		}
		s.events <- event{kind: eventShutdown}
		<-s.stopped
	})
}

func (s *Synchronizer) run() {
	for ev := range s.events {
		switch ev.kind {
		case eventIdentity:
			s.handleIdentity(ev.id)
		case eventLocal:
			s.handleLocal(ev.items)
		case eventRemote:
			s.handleRemote(ev)
		case eventFlush:
			close(ev.flushed)
		case eventShutdown:
			if s.cancelDoc != nil {
				s.cancelDoc()
				s.cancelDoc = nil
			}
			close(s.stopped)
			return
		}
	}
}

// flush blocks until every event enqueued before it has been handled.
func (s *Synchronizer) flush() {
	ch := make(chan struct{})
	s.events <- event{kind: eventFlush, flushed: ch}
	<-ch
}

func (s *Synchronizer) handleIdentity(id *identity.Identity) {
	newUID := ""
	if id != nil {
		newUID = id.UID
	}
	if newUID == s.uid {
		return
	}

	// Tear down the old identity's subscription and sync state. Stale
	// deliveries are fenced off by the generation counter.
	if s.cancelDoc != nil {
		s.cancelDoc()
		s.cancelDoc = nil
	}
	s.gen++
	s.watermark = ""
	s.remote = RemoteState{}
	s.uid = newUID

	if newUID == "" {
		if s.logg != nil {
			s.logg.Info(context.Background(), "cartsync: signed out, local store standalone")
		}
		return
	}

	gen := s.gen
	path := CartDocumentPath(newUID)
	cancel, err := s.docs.Subscribe(context.Background(), path, func(doc docstore.Document) {
		s.events <- event{kind: eventRemote, doc: doc, gen: gen}
	})
	if err != nil {
		if s.logg != nil {
			ctx := s.logg.WithDocPath(context.Background(), path)
			s.logg.Error(ctx, "cartsync: mirror subscription failed", err)
		}
		s.uid = ""
		return
	}
	s.cancelDoc = cancel

	if s.logg != nil {
		ctx := s.logg.WithUserID(context.Background(), newUID)
		s.logg.Info(ctx, "cartsync: subscribed to cart mirror")
	}
}

func (s *Synchronizer) handleLocal(items []cart.LineItem) {
	if s.uid == "" {
		// Unauthenticated: the local store operates standalone.
		return
	}
	s.reconcile(OriginLocal, items)
}

func (s *Synchronizer) handleRemote(ev event) {
	if ev.gen != s.gen || s.uid == "" {
		return
	}

	remote, err := decodeRemote(ev.doc)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(context.Background(), "cartsync: undecodable mirror snapshot", err)
		}
		return
	}
	s.remote = remote
	s.reconcile(OriginRemote, s.store.Items())
}

func (s *Synchronizer) reconcile(origin Origin, local []cart.LineItem) {
	switch Decide(origin, local, s.remote, s.watermark) {
	case ActionPushRemote:
		s.push(local)
	case ActionApplyLocal:
		// Advance the watermark before SetItems: the local trigger that
		// SetItems fires must see this snapshot as already pushed.
		s.watermark = cart.Fingerprint(s.remote.Items)
		s.store.SetItems(s.remote.Items)
		s.metrics.IncApply()
	default:
		s.metrics.IncSuppressed()
	}
}

// push writes the snapshot to the mirror. The watermark only advances on a
// confirmed write, so a failed push is retried by the next local change.
func (s *Synchronizer) push(items []cart.LineItem) {
	ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
	defer cancel()

	path := CartDocumentPath(s.uid)
	if err := s.docs.Write(ctx, path, encodeDocument(items, time.Now()), true); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithDocPath(context.Background(), path)
			s.logg.Error(logCtx, "cartsync: mirror push failed", err)
		}
		s.metrics.IncPushFailure()
		return
	}
	s.watermark = cart.Fingerprint(items)
	s.metrics.IncPush()
}
