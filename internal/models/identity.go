package models

import (
	"fmt"
	"strings"
	"time"
)

// UserIdentity is a signed-in user. UID is stable; the rest is display metadata.
type UserIdentity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Label returns the best human-readable name for the user.
func (u UserIdentity) Label() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return u.UID
	}
}

// IdentityState is what an identity provider publishes. A nil User means signed out;
// Loading means the provider has not decided yet and consumers should wait.
type IdentityState struct {
	User    *UserIdentity `json:"user"`
	Loading bool          `json:"loading"`
}

// Authenticated reports whether the state carries a decided, signed-in user.
func (s IdentityState) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// UID returns the user id, or "" when signed out or loading.
func (s IdentityState) UID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.User.UID
}

// Session is a persisted sign-in.
type Session struct {
	ID           string
	User         UserIdentity
	Provider     string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	Created      time.Time
	Updated      time.Time
	Deleted      *time.Time
}

// Expired reports whether the id token is past (or within skew of) its expiry.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// Validate checks the fields required to persist a session.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.User.UID) == "" {
		return fmt.Errorf("session uid is required")
	}
	if s.Provider == "" {
		return fmt.Errorf("session provider is required")
	}
	if s.IDToken == "" {
		return fmt.Errorf("session id token is required")
	}
	return nil
}
