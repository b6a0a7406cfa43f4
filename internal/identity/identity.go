// Package identity publishes who is signed in.
//
// A [Provider] exposes the current [models.IdentityState] and a subscription to changes. The state
// starts with Loading set; consumers must not act on identity until a state with Loading unset arrives.
//
// [Session] is the provider used by reelx. It restores a persisted Firebase session at start-up,
// refreshing an expired ID token when possible, and emits a new state on every sign-in and sign-out.
package identity

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
)

// refreshSkew treats tokens this close to expiry as already expired.
const refreshSkew = 5 * time.Minute

// Provider supplies the current identity and notifies subscribers of changes.
type Provider interface {
	// State returns the latest identity state.
	State() models.IdentityState

	// Subscribe returns a channel that receives the current state immediately and every later state.
	// A slow subscriber only ever sees the newest state. The cancel func closes the channel.
	Subscribe() (<-chan models.IdentityState, func())
}

// SessionStore persists sessions across runs.
type SessionStore interface {
	Save(*models.Session) error
	Current() (*models.Session, error)
	Delete(uid string) (int, error)
}

// Refresher renews expired ID tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshedToken, error)
}

// Session is a [Provider] backed by a persisted sign-in.
type Session struct {
	mu        sync.Mutex
	state     models.IdentityState
	current   *models.Session
	subs      map[int]chan models.IdentityState
	nextSub   int
	closed    bool
	store     SessionStore
	refresher Refresher
	verifier  services.TokenVerifier
	logger    *log.Logger
	now       func() time.Time
}

// NewSession creates a provider in the loading state. refresher and verifier may be nil.
func NewSession(store SessionStore, refresher Refresher, verifier services.TokenVerifier, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		state:     models.IdentityState{Loading: true},
		subs:      make(map[int]chan models.IdentityState),
		store:     store,
		refresher: refresher,
		verifier:  verifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Session) State() models.IdentityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Subscribe() (<-chan models.IdentityState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.IdentityState, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Current returns a copy of the active session, or nil when signed out.
func (s *Session) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Restore loads the persisted session and resolves the loading state.
//
// An expired token is refreshed. If the refresh token is rejected the session is discarded; if the
// refresh fails for transient reasons the cached identity is kept. It never leaves the provider loading.
func (s *Session) Restore(ctx context.Context) {
	sess, err := s.store.Current()
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			s.logger.Warn("failed to load session", "err", err)
		}
		s.set(nil)
		return
	}

	if sess.Expired(s.now(), refreshSkew) && s.refresher != nil {
		tok, err := s.refresher.Refresh(ctx, sess.RefreshToken)
		switch {
		case err == nil:
			sess.IDToken = tok.IDToken
			if tok.RefreshToken != "" {
				sess.RefreshToken = tok.RefreshToken
			}
			sess.ExpiresAt = tok.ExpiresAt
			if err := s.store.Save(sess); err != nil {
				s.logger.Warn("failed to persist refreshed session", "err", err)
			}
		case services.IsRejected(err) || errors.Is(err, shared.ErrNoRefreshToken):
			s.logger.Warn("session expired, signing out", "uid", sess.User.UID, "err", err)
			s.forget(sess.User.UID)
			s.set(nil)
			return
		default:
			s.logger.Warn("token refresh failed, keeping cached identity", "uid", sess.User.UID, "err", err)
		}
	}

	if s.verifier != nil && !sess.Expired(s.now(), 0) {
		user, err := s.verifier.VerifyIDToken(ctx, sess.IDToken)
		switch {
		case err == nil:
			if user.UID != sess.User.UID {
				s.logger.Warn("verified uid does not match session, signing out", "session", sess.User.UID, "token", user.UID)
				s.forget(sess.User.UID)
				s.set(nil)
				return
			}
			mergeIdentity(&sess.User, user)
		case services.IsRejected(err):
			s.logger.Warn("session token rejected, signing out", "uid", sess.User.UID, "err", err)
			s.forget(sess.User.UID)
			s.set(nil)
			return
		default:
			s.logger.Warn("token verification unavailable", "err", err)
		}
	}

	s.set(sess)
}

// SignIn persists sess and publishes its user. Persistence failures are logged; the sign-in still applies.
func (s *Session) SignIn(sess *models.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(sess); err != nil {
		s.logger.Warn("failed to persist session", "uid", sess.User.UID, "err", err)
	}
	s.set(sess)
	return nil
}

// SignOut discards the active session and publishes a signed-out state.
func (s *Session) SignOut() {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	if cur != nil {
		s.forget(cur.User.UID)
	}
	s.set(nil)
}

// Close ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.closed = true
}

func (s *Session) forget(uid string) {
	if _, err := s.store.Delete(uid); err != nil {
		s.logger.Warn("failed to delete session", "uid", uid, "err", err)
	}
}

func (s *Session) set(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	state := models.IdentityState{}
	if sess != nil {
		user := sess.User
		state.User = &user
	}
	s.state = state

	for _, ch := range s.subs {
		publish(ch, state)
	}
}

// publish replaces any undelivered state in ch with state. Callers hold the provider lock, so
// there is never a competing sender.
func publish(ch chan models.IdentityState, state models.IdentityState) {
	select {
	case ch <- state:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- state
}

func mergeIdentity(dst *models.UserIdentity, src *models.UserIdentity) {
	if src.DisplayName != "" {
		dst.DisplayName = src.DisplayName
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.PhotoURL != "" {
		dst.PhotoURL = src.PhotoURL
	}
}
