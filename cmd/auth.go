package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/reelx/internal/favorites"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/server"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

const signInTimeout = 2 * time.Minute

// AuthLogin signs in, persists the session, and replaces local favorites with the account's list.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	fa, err := r.firebaseAuth()
	if err != nil {
		return fmt.Errorf("%w (set firebase.api_key in %s)", err, r.configPath)
	}

	var sess *models.Session
	if email := cmd.String("email"); email != "" {
		password := cmd.String("password")
		if password == "" {
			return fmt.Errorf("%w: --password is required with --email", shared.ErrMissingArgument)
		}
		r.logger.Info("signing in with password", "email", email)
		if sess, err = fa.SignInWithPassword(ctx, email, password); err != nil {
			return err
		}
	} else {
		google, err := services.NewGoogleSignIn(r.config.Google)
		if err != nil {
			return fmt.Errorf("%w (set the [google] client in %s)", err, r.configPath)
		}
		idToken, err := r.doOAuth(ctx, google, cmd.Bool("no-browser"))
		if err != nil {
			return err
		}
		if sess, err = fa.SignInWithGoogle(ctx, idToken, google.RedirectURL()); err != nil {
			return err
		}
	}

	rec, err := r.favorites(ctx)
	if err != nil {
		return err
	}
	idp, err := r.session(ctx)
	if err != nil {
		return err
	}
	if err := idp.SignIn(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	rec.HandleIdentity(idp.State())

	r.writePlainln("✓ Signed in as %s", sess.User.Label())

	if !rec.Status().Remote {
		r.writePlain("Remote sync is not configured; favorites stay on this device.\n")
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := rec.WaitSynced(waitCtx); err != nil {
		r.logger.Warn("timed out waiting for remote favorites", "err", err)
		r.writePlain("⚠ Remote favorites are still loading; local list kept for now.\n")
		return nil
	}
	return r.writePlain("✓ Favorites synced (%d)\n", rec.Status().Count)
}

// doOAuth runs the Google authorization code flow against a loopback callback server and returns the Google ID token.
func (r *Runner) doOAuth(ctx context.Context, google *services.GoogleSignIn, noBrowser bool) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := google.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(google, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(shared.WithLogger(r.logger, "component", "callback")))
	router.Handler(oauthHandler)
	router.Handle(http.MethodGet, server.HealthPath, http.HandlerFunc(server.Health))

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting sign-in callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	readyCtx, cancelReady := context.WithTimeout(ctx, 5*time.Second)
	err = server.WaitReady(readyCtx, &http.Client{Timeout: time.Second}, "http://"+serverAddr)
	cancelReady()
	if err != nil {
		select {
		case serr := <-serverErrors:
			return "", fmt.Errorf("server error: %w", serr)
		default:
			return "", err
		}
	}
	r.logger.Debug("callback server ready", "routes", router.Routes())

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Google sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for sign-in (2 minute timeout)...\n")

	timeout := time.NewTimer(signInTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: sign-in timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if result.Error() != nil {
		return "", fmt.Errorf("sign-in failed: %w", result.Error())
	}
	if result.IDToken == "" {
		return "", fmt.Errorf("%w: no id token received", shared.ErrAuthFailed)
	}
	return result.IDToken, nil
}

// AuthLogout forgets the session. The favorites list is kept on this device.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.favorites(ctx)
	if err != nil {
		return err
	}
	idp, err := r.session(ctx)
	if err != nil {
		return err
	}

	state := idp.State()
	if !state.Authenticated() {
		return r.writePlain("Not signed in.\n")
	}

	idp.SignOut()
	rec.HandleIdentity(idp.State())

	r.writePlain("✓ Signed out %s\n", state.User.Label())
	return r.writePlain("%d favorites kept on this device\n", rec.Status().Count)
}

type authStatus struct {
	SignedIn  bool                 `json:"signedIn"`
	User      *models.UserIdentity `json:"user,omitempty"`
	Provider  string               `json:"provider,omitempty"`
	ExpiresAt *time.Time           `json:"expiresAt,omitempty"`
	Sync      string               `json:"sync"`
	Remote    bool                 `json:"remote"`
	Favorites int                  `json:"favorites"`
}

// AuthStatus reports the signed-in user and the favorites sync state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}
	st := rec.Status()

	out := authStatus{
		SignedIn:  st.User != nil,
		User:      st.User,
		Sync:      st.State.String(),
		Remote:    st.Remote,
		Favorites: st.Count,
	}
	if r.identity != nil {
		if cur := r.identity.Current(); cur != nil {
			out.Provider = cur.Provider
			if !cur.ExpiresAt.IsZero() {
				exp := cur.ExpiresAt
				out.ExpiresAt = &exp
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if out.SignedIn {
		r.writePlain("%s Signed in as %s %s\n", green("✓"), out.User.Label(), faint("("+out.User.UID+")"))
		if out.Provider != "" {
			r.writePlain("Provider: %s\n", out.Provider)
		}
	} else {
		r.writePlain("%s Not signed in\n", yellow("✗"))
	}

	sync := out.Sync
	switch {
	case !out.Remote:
		sync = "local only"
	case st.State == favorites.Synced:
		sync = green(sync)
	default:
		sync = yellow(sync)
	}
	r.writePlain("Sync: %s\n", sync)
	return r.writePlain("Favorites: %d\n", out.Favorites)
}
