package testing

import (
	"sync"

	"github.com/desertthunder/reelx/internal/models"
)

// FakeIdentity is an identity provider driven by the test through Emit.
type FakeIdentity struct {
	mu     sync.Mutex
	state  models.IdentityState
	subs   []chan models.IdentityState
	closed bool
}

// NewFakeIdentity starts in the loading state.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{state: models.IdentityState{Loading: true}}
}

func (f *FakeIdentity) State() models.IdentityState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscribe delivers the current state and then every emitted state.
func (f *FakeIdentity) Subscribe() (<-chan models.IdentityState, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan models.IdentityState, 8)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- f.state
	f.subs = append(f.subs, ch)

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Emit publishes state to every subscriber.
func (f *FakeIdentity) Emit(state models.IdentityState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	for _, ch := range f.subs {
		ch <- state
	}
}

// SignIn emits a signed-in state for uid.
func (f *FakeIdentity) SignIn(uid string) {
	f.Emit(models.IdentityState{User: &models.UserIdentity{UID: uid, DisplayName: "User " + uid}})
}

// SignOut emits a signed-out state.
func (f *FakeIdentity) SignOut() {
	f.Emit(models.IdentityState{})
}

// Close closes every subscription.
func (f *FakeIdentity) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
	f.closed = true
}
