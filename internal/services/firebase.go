// Firebase identity over the Identity Toolkit REST API, plus Admin SDK token verification.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1"

	ProviderGoogle   = "google.com"
	ProviderPassword = "password"
)

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	ProviderID   string `json:"providerId"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RefreshedToken is the result of exchanging a refresh token.
type RefreshedToken struct {
	UID          string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// FirebaseAuth signs users in against Firebase Authentication using the project's web API key.
type FirebaseAuth struct {
	apiKey      string
	identityURL string
	tokenURL    string
	httpClient  *http.Client
	now         func() time.Time
}

// NewFirebaseAuth creates a new [FirebaseAuth]. A nil client uses [http.DefaultClient].
func NewFirebaseAuth(apiKey string, client *http.Client) (*FirebaseAuth, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: firebase api_key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FirebaseAuth{
		apiKey:      apiKey,
		identityURL: identityToolkitURL,
		tokenURL:    secureTokenURL,
		httpClient:  client,
		now:         time.Now,
	}, nil
}

// SignInWithGoogle exchanges a Google ID token for a Firebase session.
func (f *FirebaseAuth) SignInWithGoogle(ctx context.Context, googleIDToken, requestURI string) (*models.Session, error) {
	if googleIDToken == "" {
		return nil, fmt.Errorf("%w: google id token", shared.ErrMissingArgument)
	}
	if requestURI == "" {
		requestURI = "http://localhost"
	}

	body := map[string]any{
		"postBody":            url.Values{"id_token": {googleIDToken}, "providerId": {ProviderGoogle}}.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp signInResponse
	if err := f.postJSON(ctx, f.identityURL+"/accounts:signInWithIdp", body, &resp); err != nil {
		return nil, err
	}
	return f.session(resp, ProviderGoogle)
}

// SignInWithPassword signs in an email/password account.
func (f *FirebaseAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingArgument)
	}

	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}

	var resp signInResponse
	if err := f.postJSON(ctx, f.identityURL+"/accounts:signInWithPassword", body, &resp); err != nil {
		return nil, err
	}
	return f.session(resp, ProviderPassword)
}

// Refresh exchanges a refresh token for a new ID token.
//
// A rejected refresh token yields [shared.ErrRefreshFailed]; network failures yield [shared.ErrServiceUnavailable].
func (f *FirebaseAuth) Refresh(ctx context.Context, refreshToken string) (*RefreshedToken, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refreshToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint(f.tokenURL+"/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := f.do(req, &resp); err != nil {
		return nil, err
	}

	return &RefreshedToken{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    f.expiry(resp.ExpiresIn),
	}, nil
}

func (f *FirebaseAuth) session(resp signInResponse, provider string) (*models.Session, error) {
	if resp.LocalID == "" || resp.IDToken == "" {
		return nil, fmt.Errorf("%w: sign-in response missing user or token", shared.ErrAuthFailed)
	}
	return &models.Session{
		User: models.UserIdentity{
			UID:         resp.LocalID,
			DisplayName: resp.DisplayName,
			Email:       resp.Email,
			PhotoURL:    resp.PhotoURL,
		},
		Provider:     provider,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    f.expiry(resp.ExpiresIn),
	}, nil
}

func (f *FirebaseAuth) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return f.now().Add(time.Duration(secs) * time.Second)
}

func (f *FirebaseAuth) endpoint(base string) string {
	return base + "?key=" + url.QueryEscape(f.apiKey)
}

func (f *FirebaseAuth) postJSON(ctx context.Context, endpoint string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint(endpoint), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(req, result)
}

func (f *FirebaseAuth) do(req *http.Request, result any) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fbErr firebaseError
		_ = json.NewDecoder(resp.Body).Decode(&fbErr)
		return classifyFirebaseError(resp.StatusCode, fbErr.Error.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// classifyFirebaseError maps Identity Toolkit error codes (e.g. "INVALID_PASSWORD : detail") onto sentinel errors.
func classifyFirebaseError(status int, message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "INVALID_IDP_RESPONSE":
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, message)
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_DISABLED", "USER_NOT_FOUND", "INVALID_GRANT_TYPE", "MISSING_REFRESH_TOKEN":
		return fmt.Errorf("%w: %s", shared.ErrRefreshFailed, message)
	}
	if status >= 500 || status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: firebase status %d: %s", shared.ErrServiceUnavailable, status, message)
	}
	return fmt.Errorf("%w: firebase status %d: %s", shared.ErrAuthFailed, status, message)
}

// TokenVerifier checks an ID token and returns the identity it was issued to.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.UserIdentity, error)
}

// FirebaseVerifier verifies Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier initialises a Firebase app for projectID and its Auth client.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: firebase project_id is empty", shared.ErrMissingConfig)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, shared.GoogleClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("%w: firebase app init: %v", shared.ErrServiceUnavailable, err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: firebase auth init: %v", shared.ErrServiceUnavailable, err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// VerifyIDToken validates idToken's signature, audience, and expiry.
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*models.UserIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
	return identityFromClaims(token.UID, token.Claims), nil
}

func identityFromClaims(uid string, claims map[string]any) *models.UserIdentity {
	str := func(key string) string {
		if s, ok := claims[key].(string); ok {
			return strings.TrimSpace(s)
		}
		return ""
	}
	return &models.UserIdentity{
		UID:         uid,
		DisplayName: str("name"),
		Email:       str("email"),
		PhotoURL:    str("picture"),
	}
}

// IsRejected reports whether err means the credential itself was refused, as opposed to a transient failure.
func IsRejected(err error) bool {
	return errors.Is(err, shared.ErrRefreshFailed) || errors.Is(err, shared.ErrInvalidCredentials) ||
		errors.Is(err, shared.ErrTokenExpired)
}
