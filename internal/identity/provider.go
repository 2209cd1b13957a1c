// Package identity abstracts the external authentication service. The cart
// core only needs to know who is signed in and when that changes; the real
// sign-in/sign-up flows live outside this repository.
package identity

import "sync"

// Identity is the signed-in user as seen by the cart core.
type Identity struct {
	UID string
}

// Provider reports the current identity and notifies on sign-in/sign-out.
type Provider interface {
	// Current returns the signed-in identity, or nil when unauthenticated.
	Current() *Identity

	// OnChange registers fn to run with the new identity (nil on sign-out)
	// after every transition. The returned cancel detaches it.
	OnChange(fn func(*Identity)) (cancel func())
}

// MemoryProvider is an in-process Provider driven by explicit SignIn and
// SignOut calls. It backs tests and deployments where the upstream auth
// service is fronted by session middleware.
type MemoryProvider struct {
	mu      sync.Mutex
	current *Identity
	subs    map[int]func(*Identity)
	nextID  int
}

// NewMemoryProvider starts unauthenticated.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{subs: map[int]func(*Identity){}}
}

// Current implements Provider.
func (p *MemoryProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// OnChange implements Provider.
func (p *MemoryProvider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignIn transitions to the given identity and notifies subscribers.
// Signing in as the already-current uid is a no-op.
func (p *MemoryProvider) SignIn(uid string) {
	p.mu.Lock()
	if p.current != nil && p.current.UID == uid {
		p.mu.Unlock()
		return
	}
	p.current = &Identity{UID: uid}
	p.notifyLocked(&Identity{UID: uid})
}

// SignOut clears the identity and notifies subscribers. A no-op when
// already unauthenticated.
func (p *MemoryProvider) SignOut() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.notifyLocked(nil)
}

// notifyLocked snapshots the subscriber list, releases the mutex and runs
// the callbacks, so subscribers may call back into the provider.
func (p *MemoryProvider) notifyLocked(id *Identity) {
	fns := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
