package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/favorites"
	"github.com/desertthunder/reelx/internal/identity"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/repositories"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	// syncTimeout bounds how long a command waits for the login fetch before reading favorites.
	syncTimeout = 10 * time.Second
	// flushTimeout bounds how long shutdown waits for in-flight remote writes.
	flushTimeout = 10 * time.Second
)

// Runner is the application context: it owns configuration, storage, the identity provider, and the
// favorites reconciler, and provides methods for each command action.
//
// Dependencies are opened lazily so commands that only need local storage never touch the network.
type Runner struct {
	config       *shared.Config
	configPath   string
	configLoaded bool
	logger       *log.Logger
	output       io.Writer
	httpClient   *http.Client

	db       *sql.DB
	ownsDB   bool
	kv       *repositories.KVRepository
	todos    *repositories.TodoRepository
	notes    *repositories.NoteRepository
	reviews  *repositories.ReviewRepository
	prefs    *repositories.PreferenceRepository
	sessions *repositories.SessionRepository

	catalog    services.Catalog
	firebase   *services.FirebaseAuth
	remote     favorites.RemoteStore
	firestore  *firestore.Client
	identity   *identity.Session
	reconciler *favorites.Reconciler
	stopWatch  context.CancelFunc

	// closed after everything else, so components logging during shutdown still have their writers
	closers []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	DB         *sql.DB               // Migrated database; opened from config when nil
	Catalog    services.Catalog      // Movie catalog; built from config when nil
	Remote     favorites.RemoteStore // Remote favorites; built from config when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
		catalog:    opts.Catalog,
		remote:     opts.Remote,
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
	} else {
		r.configLoaded = true
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, favoritesCommand, reviewsCommand, todosCommand, notesCommand, themeCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configLoaded {
		return ctx, nil
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", r.configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	r.configLoaded = true
	return ctx, nil
}

// SetLogger replaces the logger, e.g. to redirect logs to a file while the TUI runs.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// closeOnExit registers c to be closed at the end of [Runner.Close].
func (r *Runner) closeOnExit(c io.Closer) {
	r.closers = append(r.closers, c)
}

// store opens the database and repositories on first use.
func (r *Runner) store() (*repositories.KVRepository, error) {
	if r.kv != nil {
		return r.kv, nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		r.db = db
		r.ownsDB = true
	}

	r.kv = repositories.NewKVRepository(r.db)
	r.todos = repositories.NewTodoRepository(r.kv, r.logger)
	r.notes = repositories.NewNoteRepository(r.kv, r.logger)
	r.reviews = repositories.NewReviewRepository(r.kv, r.logger)
	r.prefs = repositories.NewPreferenceRepository(r.kv)
	r.sessions = repositories.NewSessionRepository(r.db)
	return r.kv, nil
}

// movies returns the movie catalog, building the TMDB client on first use.
func (r *Runner) movies() (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	tmdb, err := services.NewTMDBService(r.config.TMDB, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (set tmdb.api_key in %s or REELX_TMDB_API_KEY)", err, r.configPath)
	}
	r.catalog = tmdb
	return tmdb, nil
}

// firebaseAuth returns the Firebase Authentication client, or an error when no web API key is configured.
func (r *Runner) firebaseAuth() (*services.FirebaseAuth, error) {
	if r.firebase != nil {
		return r.firebase, nil
	}
	fa, err := services.NewFirebaseAuth(r.config.Firebase.APIKey, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.firebase = fa
	return fa, nil
}

// session restores the persisted identity on first use.
func (r *Runner) session(ctx context.Context) (*identity.Session, error) {
	if r.identity != nil {
		return r.identity, nil
	}
	if _, err := r.store(); err != nil {
		return nil, err
	}

	var refresher identity.Refresher
	if fa, err := r.firebaseAuth(); err == nil {
		refresher = fa
	}

	var verifier services.TokenVerifier
	if r.config.Firebase.VerifyTokens && r.config.RemoteEnabled() {
		v, err := services.NewFirebaseVerifier(ctx, r.config.Firebase.ProjectID, r.config.Firebase.CredentialsFile)
		if err != nil {
			r.logger.Warn("token verification disabled", "err", err)
		} else {
			verifier = v
		}
	}

	sess := identity.NewSession(r.sessions, refresher, verifier, shared.WithLogger(r.logger, "component", "identity"))
	sess.Restore(ctx)
	r.identity = sess
	return sess, nil
}

// remoteStore returns the remote favorites store, or nil when remote sync is not configured.
func (r *Runner) remoteStore(ctx context.Context) favorites.RemoteStore {
	if r.remote != nil {
		return r.remote
	}
	if !r.config.RemoteEnabled() {
		return nil
	}

	client, err := repositories.NewFirestoreClient(ctx, r.config.Firebase.ProjectID, r.config.Firebase.CredentialsFile)
	if err != nil {
		r.logger.Warn("remote favorites unavailable, continuing locally", "err", err)
		return nil
	}
	r.firestore = client
	r.remote = repositories.NewFirestoreFavorites(client, r.config.Firebase.Collection, r.config.Firebase.FavoritesField)
	return r.remote
}

// favorites builds the reconciler, applies the restored identity, and keeps watching for sign-in changes.
//
// Local storage failures degrade to a memory-only list.
func (r *Runner) favorites(ctx context.Context) (*favorites.Reconciler, error) {
	if r.reconciler != nil {
		return r.reconciler, nil
	}

	kv, err := r.store()
	if err != nil {
		r.logger.Warn("local storage unavailable, favorites will not persist", "err", err)
	}
	local := repositories.NewFavoritesLocalStore(kv, r.logger)
	rec := favorites.New(local, r.remoteStore(ctx), r.logger)
	if secs := r.config.Firebase.TimeoutSeconds; secs > 0 {
		rec.SetRemoteTimeout(time.Duration(secs) * time.Second)
	}

	if err == nil {
		sess, serr := r.session(ctx)
		if serr != nil {
			return nil, serr
		}
		rec.HandleIdentity(sess.State())

		watchCtx, cancel := context.WithCancel(context.Background())
		r.stopWatch = cancel
		go rec.Watch(watchCtx, sess)
	} else {
		rec.HandleIdentity(models.IdentityState{})
	}

	r.reconciler = rec
	return rec, nil
}

// syncedFavorites returns the reconciler once any login fetch has resolved or syncTimeout passed.
func (r *Runner) syncedFavorites(ctx context.Context) (*favorites.Reconciler, error) {
	rec, err := r.favorites(ctx)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := rec.WaitSynced(waitCtx); err != nil {
		r.logger.Warn("remote favorites still syncing, showing local list", "err", err)
	}
	return rec, nil
}

// Close flushes pending remote writes and releases every opened resource.
func (r *Runner) Close() {
	if r.reconciler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := r.reconciler.Close(ctx); err != nil {
			r.logger.Warn("remote favorites not fully saved", "err", err)
		}
		cancel()
		r.reconciler = nil
	}
	if r.stopWatch != nil {
		r.stopWatch()
		r.stopWatch = nil
	}
	if r.identity != nil {
		r.identity.Close()
		r.identity = nil
	}
	if r.firestore != nil {
		if err := r.firestore.Close(); err != nil {
			r.logger.Debug("failed to close firestore client", "err", err)
		}
		r.firestore = nil
	}
	if r.db != nil && r.ownsDB {
		r.db.Close()
	}
	r.db = nil
	r.kv = nil

	for _, c := range r.closers {
		c.Close()
	}
	r.closers = nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
