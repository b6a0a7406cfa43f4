package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/oauth2"
)

func TestGoogleSignIn(t *testing.T) {
	cfg := shared.GoogleConfig{ClientID: "client", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:3000/callback"}

	t.Run("Missing Credentials", func(t *testing.T) {
		tc := []shared.GoogleConfig{
			{},
			{ClientID: "client"},
			{ClientID: "your_google_client_id", ClientSecret: "secret"},
		}
		for _, c := range tc {
			if _, err := NewGoogleSignIn(c); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("NewGoogleSignIn(%+v) error = %v", c, err)
			}
		}
	})

	t.Run("AuthURL", func(t *testing.T) {
		g, err := NewGoogleSignIn(cfg)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		u, err := url.Parse(g.AuthURL("state-123"))
		if err != nil {
			t.Fatalf("invalid auth url: %v", err)
		}
		q := u.Query()
		if q.Get("state") != "state-123" || q.Get("client_id") != "client" {
			t.Errorf("unexpected query: %v", q)
		}
		if !strings.Contains(q.Get("scope"), "openid") || !strings.Contains(q.Get("scope"), "email") {
			t.Errorf("expected openid and email scopes, got %q", q.Get("scope"))
		}
		if q.Get("redirect_uri") != g.RedirectURL() {
			t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if r.Form.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`)
		}))
		defer server.Close()

		g, _ := NewGoogleSignIn(cfg)
		g.config.Endpoint = oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"}

		idToken, err := g.Exchange(context.Background(), "good")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if idToken != "google-id-token" {
			t.Errorf("expected id token, got %q", idToken)
		}

		if _, err := g.Exchange(context.Background(), "bad"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}

		if _, err := g.Exchange(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Exchange Without ID Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"at","token_type":"Bearer"}`)
		}))
		defer server.Close()

		g, _ := NewGoogleSignIn(cfg)
		g.config.Endpoint = oauth2.Endpoint{TokenURL: server.URL + "/token"}

		if _, err := g.Exchange(context.Background(), "code"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}
