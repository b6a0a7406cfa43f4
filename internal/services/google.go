package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleSignIn runs the OAuth2 authorization code flow against Google to obtain an ID token.
type GoogleSignIn struct {
	config *oauth2.Config
}

// NewGoogleSignIn creates a new Google sign-in flow from the OAuth client credentials.
func NewGoogleSignIn(cfg shared.GoogleConfig) (*GoogleSignIn, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" || clientID == "your_google_client_id" {
		return nil, fmt.Errorf("%w: google client_id", shared.ErrMissingCredentials)
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" || clientSecret == "your_google_client_secret" {
		return nil, fmt.Errorf("%w: google client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	return &GoogleSignIn{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}, nil
}

// RedirectURL returns the callback URL registered with Google.
func (g *GoogleSignIn) RedirectURL() string {
	return g.config.RedirectURL
}

// AuthURL returns the consent page URL for state, always prompting for account selection.
func (g *GoogleSignIn) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the Google ID token in the token response.
func (g *GoogleSignIn) Exchange(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: authorization code is empty", shared.ErrMissingArgument)
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", fmt.Errorf("%w: token response has no id_token", shared.ErrAuthFailed)
	}
	return idToken, nil
}
