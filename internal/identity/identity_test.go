package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	current *models.Session
	saves   int
	deletes []string
	loadErr error
}

func (m *memorySessions) Save(s *models.Session) error {
	m.saves++
	c := *s
	m.current = &c
	return nil
}

func (m *memorySessions) Current() (*models.Session, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.current == nil {
		return nil, shared.ErrNotAuthenticated
	}
	c := *m.current
	return &c, nil
}

func (m *memorySessions) Delete(uid string) (int, error) {
	m.deletes = append(m.deletes, uid)
	if m.current != nil && m.current.User.UID == uid {
		m.current = nil
		return 1, nil
	}
	return 0, nil
}

type stubRefresher struct {
	tok   *services.RefreshedToken
	err   error
	calls int
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (*services.RefreshedToken, error) {
	s.calls++
	return s.tok, s.err
}

type stubVerifier struct {
	user *models.UserIdentity
	err  error
}

func (s *stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*models.UserIdentity, error) {
	return s.user, s.err
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func session(uid string, expires time.Time) *models.Session {
	return &models.Session{
		User:         models.UserIdentity{UID: uid, Email: uid + "@example.com"},
		Provider:     services.ProviderGoogle,
		IDToken:      "id-" + uid,
		RefreshToken: "refresh-" + uid,
		ExpiresAt:    expires,
	}
}

func newTestSession(store SessionStore, r Refresher, v services.TokenVerifier) *Session {
	s := NewSession(store, r, v, nil)
	s.now = func() time.Time { return now }
	return s
}

func receive(t *testing.T, ch <-chan models.IdentityState) models.IdentityState {
	t.Helper()
	select {
	case st, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return st
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for identity state")
		return models.IdentityState{}
	}
}

func TestSessionStartsLoading(t *testing.T) {
	s := newTestSession(&memorySessions{}, nil, nil)

	assert.True(t, s.State().Loading)

	ch, cancel := s.Subscribe()
	defer cancel()
	assert.True(t, receive(t, ch).Loading)
}

func TestRestore(t *testing.T) {
	t.Run("no stored session", func(t *testing.T) {
		s := newTestSession(&memorySessions{}, nil, nil)
		s.Restore(context.Background())

		st := s.State()
		assert.False(t, st.Loading)
		assert.Nil(t, st.User)
	})

	t.Run("storage failure resolves signed out", func(t *testing.T) {
		s := newTestSession(&memorySessions{loadErr: shared.ErrStorageUnavailable}, nil, nil)
		s.Restore(context.Background())

		assert.False(t, s.State().Loading)
		assert.Nil(t, s.State().User)
	})

	t.Run("valid session", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(time.Hour))}
		r := &stubRefresher{}
		s := newTestSession(store, r, nil)

		s.Restore(context.Background())

		assert.Equal(t, "u1", s.State().UID())
		assert.Zero(t, r.calls, "fresh token should not be refreshed")
	})

	t.Run("expired session is refreshed", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(-time.Minute))}
		r := &stubRefresher{tok: &services.RefreshedToken{UID: "u1", IDToken: "new-id", ExpiresAt: now.Add(time.Hour)}}
		s := newTestSession(store, r, nil)

		s.Restore(context.Background())

		assert.Equal(t, "u1", s.State().UID())
		require.NotNil(t, s.Current())
		assert.Equal(t, "new-id", s.Current().IDToken)
		assert.Equal(t, "refresh-u1", s.Current().RefreshToken, "refresh token kept when not rotated")
		assert.Equal(t, "new-id", store.current.IDToken)
	})

	t.Run("rejected refresh signs out", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(-time.Minute))}
		r := &stubRefresher{err: fmt.Errorf("%w: TOKEN_EXPIRED", shared.ErrRefreshFailed)}
		s := newTestSession(store, r, nil)

		s.Restore(context.Background())

		assert.Nil(t, s.State().User)
		assert.Equal(t, []string{"u1"}, store.deletes)
	})

	t.Run("transient refresh failure keeps identity", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(-time.Minute))}
		r := &stubRefresher{err: fmt.Errorf("%w: offline", shared.ErrServiceUnavailable)}
		s := newTestSession(store, r, nil)

		s.Restore(context.Background())

		assert.Equal(t, "u1", s.State().UID())
		assert.Empty(t, store.deletes)
	})

	t.Run("verifier refreshes display metadata", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(time.Hour))}
		v := &stubVerifier{user: &models.UserIdentity{UID: "u1", DisplayName: "Ana"}}
		s := newTestSession(store, nil, v)

		s.Restore(context.Background())

		require.NotNil(t, s.State().User)
		assert.Equal(t, "Ana", s.State().User.DisplayName)
		assert.Equal(t, "u1@example.com", s.State().User.Email)
	})

	t.Run("verifier rejection signs out", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(time.Hour))}
		v := &stubVerifier{err: fmt.Errorf("%w: bad signature", shared.ErrInvalidCredentials)}
		s := newTestSession(store, nil, v)

		s.Restore(context.Background())

		assert.Nil(t, s.State().User)
	})

	t.Run("verifier uid mismatch signs out", func(t *testing.T) {
		store := &memorySessions{current: session("u1", now.Add(time.Hour))}
		v := &stubVerifier{user: &models.UserIdentity{UID: "u2"}}
		s := newTestSession(store, nil, v)

		s.Restore(context.Background())

		assert.Nil(t, s.State().User)
	})
}

func TestSignInAndOut(t *testing.T) {
	store := &memorySessions{}
	s := newTestSession(store, nil, nil)
	s.Restore(context.Background())

	ch, cancel := s.Subscribe()
	defer cancel()
	assert.Nil(t, receive(t, ch).User)

	require.NoError(t, s.SignIn(session("u1", now.Add(time.Hour))))
	assert.Equal(t, "u1", receive(t, ch).UID())
	assert.Equal(t, 1, store.saves)

	s.SignOut()
	st := receive(t, ch)
	assert.False(t, st.Loading)
	assert.Nil(t, st.User)
	assert.Nil(t, s.Current())
	assert.Nil(t, store.current)

	assert.Error(t, s.SignIn(&models.Session{}), "invalid session should be rejected")
}

func TestSubscriptionKeepsLatest(t *testing.T) {
	s := newTestSession(&memorySessions{}, nil, nil)

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.SignIn(session("u1", now.Add(time.Hour))))
	require.NoError(t, s.SignIn(session("u2", now.Add(time.Hour))))
	s.SignOut()
	require.NoError(t, s.SignIn(session("u3", now.Add(time.Hour))))

	assert.Equal(t, "u3", receive(t, ch).UID())
	select {
	case st := <-ch:
		t.Fatalf("expected only the latest state, got extra %+v", st)
	default:
	}
}

func TestSubscriptionCancelAndClose(t *testing.T) {
	s := newTestSession(&memorySessions{}, nil, nil)

	ch1, cancel1 := s.Subscribe()
	receive(t, ch1)
	cancel1()
	cancel1()
	_, ok := <-ch1
	assert.False(t, ok, "cancelled subscription should be closed")

	ch2, _ := s.Subscribe()
	receive(t, ch2)
	s.Close()
	_, ok = <-ch2
	assert.False(t, ok, "Close should end subscriptions")

	ch3, cancel3 := s.Subscribe()
	defer cancel3()
	_, ok = <-ch3
	assert.False(t, ok, "subscribing after Close yields a closed channel")
}

func TestSessionImplementsProvider(t *testing.T) {
	var p Provider = NewSession(&memorySessions{}, nil, nil, nil)
	assert.NotNil(t, p)
}
