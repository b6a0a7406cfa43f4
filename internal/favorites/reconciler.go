package favorites

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// DefaultRemoteTimeout bounds each remote fetch or save.
const DefaultRemoteTimeout = 15 * time.Second

// State is the reconciler's sync state.
type State int

const (
	Unauthenticated State = iota
	Syncing
	Synced
)

func (s State) String() string {
	switch s {
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	default:
		return "unauthenticated"
	}
}

// LocalStore is synchronous, best-effort on-device storage for the list.
type LocalStore interface {
	Load() models.FavoritesList
	Save(models.FavoritesList)
}

// RemoteStore is the per-user remote document. Fetch returns [shared.ErrDocumentNotFound] when the
// user has no stored list.
type RemoteStore interface {
	Fetch(ctx context.Context, uid string) (models.FavoritesList, error)
	Save(ctx context.Context, uid string, list models.FavoritesList) error
}

// IdentitySource is the subset of an identity provider the reconciler consumes.
type IdentitySource interface {
	Subscribe() (<-chan models.IdentityState, func())
}

// Status is a point-in-time summary of the reconciler.
type Status struct {
	State      State
	User       *models.UserIdentity
	Count      int
	Generation uint64
	Pending    int
	Remote     bool
}

// Reconciler owns the in-memory favorites list and keeps the local and remote stores in step with it.
type Reconciler struct {
	mu       sync.Mutex
	list     models.FavoritesList
	state    State
	user     *models.UserIdentity
	gen      uint64
	fetchSeq uint64
	synced   chan struct{}
	decided  chan struct{}
	inflight map[*Task]struct{}
	hooks    []func(models.FavoritesList)
	closed   bool

	// edits made while Syncing, replayed onto the fetched list; deferred holds their save tasks.
	edits    []pendingEdit
	deferred []*Task

	local   LocalStore
	remote  RemoteStore
	logger  *log.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

type pendingEdit struct {
	movie models.Movie
	added bool
}

// New creates a reconciler hydrated from local. remote may be nil, in which case favorites stay on
// this device and identity changes never trigger remote work.
func New(local LocalStore, remote RemoteStore, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	closedCh := make(chan struct{})
	close(closedCh)

	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		list:     local.Load().Dedup(),
		state:    Unauthenticated,
		synced:   closedCh,
		decided:  make(chan struct{}),
		inflight: make(map[*Task]struct{}),
		local:    local,
		remote:   remote,
		logger:   shared.WithLogger(logger, "component", "favorites"),
		timeout:  DefaultRemoteTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetRemoteTimeout changes the per-operation timeout for remote calls. Non-positive values are ignored.
func (r *Reconciler) SetRemoteTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}

// OnChange registers fn to receive a copy of the list after every change. fn runs outside the lock.
func (r *Reconciler) OnChange(fn func(models.FavoritesList)) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// Favorites returns a copy of the current list.
func (r *Reconciler) Favorites() models.FavoritesList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Clone()
}

// IsFavorite reports whether id is in the list.
func (r *Reconciler) IsFavorite(id models.ItemID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Contains(id)
}

// State returns the current sync state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// User returns the identity the reconciler is syncing for, or nil.
func (r *Reconciler) User() *models.UserIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user == nil {
		return nil
	}
	u := *r.user
	return &u
}

// Status returns a summary for display.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		State:      r.state,
		Count:      len(r.list),
		Generation: r.gen,
		Pending:    len(r.inflight),
		Remote:     r.remote != nil,
	}
	if r.user != nil {
		u := *r.user
		st.User = &u
	}
	return st
}

// HandleIdentity applies an identity state.
//
// Loading states are ignored. A new user starts a new generation and, when a remote store is
// configured, a background fetch; the returned task is that fetch. Signing out starts a new generation
// and keeps the list. Re-announcing the current user only refreshes its display metadata.
func (r *Reconciler) HandleIdentity(st models.IdentityState) *Task {
	if st.Loading {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.markDecided()

	if st.User == nil {
		if r.user == nil && r.state == Unauthenticated {
			return nil
		}
		r.gen++
		r.dropDeferred()
		r.logger.Info("signed out, remote sync paused", "generation", r.gen, "count", len(r.list))
		r.user = nil
		r.setState(Unauthenticated)
		return nil
	}

	if r.user != nil && r.user.UID == st.User.UID {
		u := *st.User
		r.user = &u
		return nil
	}

	u := *st.User
	r.user = &u
	r.gen++
	r.dropDeferred()
	return r.beginSync()
}

// Refresh re-fetches the signed-in user's remote list. The fetch starts once saves already in
// flight for the user have finished.
func (r *Reconciler) Refresh() (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.remoteReady(); err != nil {
		return nil, err
	}
	return r.beginSync(), nil
}

// Push writes the current list to the signed-in user's remote document. While Syncing the save
// waits for the fetch to resolve.
func (r *Reconciler) Push() (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.remoteReady(); err != nil {
		return nil, err
	}
	if r.state == Syncing {
		return r.deferSave(), nil
	}
	return r.startSave(r.user.UID, r.gen, r.list.Clone()), nil
}

// Toggle removes m if present and appends it otherwise, reporting whether it was added.
//
// The new list is written to the local store immediately. When a user is signed in, the full list
// is also saved remotely in the background and the returned task tracks that save; otherwise the task is nil.
// A toggle made while Syncing is replayed onto the fetched list, and its save waits for the fetch.
func (r *Reconciler) Toggle(m models.Movie) (bool, *Task) {
	r.mu.Lock()

	next, added := r.list.Toggle(m)
	r.list = next
	r.local.Save(next)

	var task *Task
	switch {
	case r.user == nil || r.remote == nil || r.closed:
	case r.state == Syncing:
		r.edits = append(r.edits, pendingEdit{movie: m, added: added})
		task = r.deferSave()
	default:
		task = r.startSave(r.user.UID, r.gen, next.Clone())
	}

	snapshot, hooks := r.list.Clone(), r.hooks
	r.mu.Unlock()

	notify(hooks, snapshot)
	return added, task
}

// WaitSynced blocks until an identity decision has been applied and no login fetch is pending.
func (r *Reconciler) WaitSynced(ctx context.Context) error {
	r.mu.Lock()
	decided := r.decided
	r.mu.Unlock()

	select {
	case <-decided:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		r.mu.Lock()
		synced, state := r.synced, r.state
		r.mu.Unlock()

		if state != Syncing {
			return nil
		}
		select {
		case <-synced:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Watch applies every state from src until ctx ends or the subscription closes.
func (r *Reconciler) Watch(ctx context.Context, src IdentitySource) error {
	ch, cancel := src.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-ch:
			if !ok {
				return nil
			}
			r.HandleIdentity(st)
		}
	}
}

// Flush waits for every in-flight remote task, including ones started while waiting.
func (r *Reconciler) Flush(ctx context.Context) error {
	for {
		r.mu.Lock()
		pending := make([]*Task, 0, len(r.inflight))
		for t := range r.inflight {
			pending = append(pending, t)
		}
		r.mu.Unlock()

		if len(pending) == 0 {
			return nil
		}
		for _, t := range pending {
			select {
			case <-t.Done():
			case <-ctx.Done():
				return fmt.Errorf("%w: %d remote operations still pending", shared.ErrTimeout, len(pending))
			}
		}
	}
}

// Close stops new remote work, waits for in-flight tasks until ctx ends, then cancels whatever remains.
func (r *Reconciler) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.markDecided()
	r.mu.Unlock()

	err := r.Flush(ctx)
	r.cancel()
	return err
}

func (r *Reconciler) remoteReady() error {
	switch {
	case r.closed:
		return shared.ErrClosed
	case r.remote == nil:
		return fmt.Errorf("%w: remote sync is not configured", shared.ErrMissingConfig)
	case r.user == nil:
		return shared.ErrNotAuthenticated
	}
	return nil
}

// beginSync fetches the current user's list within the current generation. Callers hold r.mu.
func (r *Reconciler) beginSync() *Task {
	if r.remote == nil {
		r.logger.Info("signed in, remote sync disabled", "uid", r.user.UID)
		r.setState(Synced)
		return nil
	}

	r.logger.Info("signed in, fetching remote favorites", "uid", r.user.UID, "generation", r.gen)
	r.setState(Syncing)
	return r.startFetch(r.user.UID, r.gen)
}

// setState moves to s, opening or closing the synced channel on entry to and exit from Syncing.
func (r *Reconciler) setState(s State) {
	if s == Syncing && r.state != Syncing {
		r.synced = make(chan struct{})
	}
	if s != Syncing && r.state == Syncing {
		close(r.synced)
	}
	r.state = s
}

func (r *Reconciler) markDecided() {
	select {
	case <-r.decided:
	default:
		close(r.decided)
	}
}

func (r *Reconciler) track(kind TaskKind, uid string, gen uint64) (*Task, context.Context, context.CancelFunc) {
	t := newTask(kind, uid, gen)
	r.inflight[t] = struct{}{}
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	return t, ctx, cancel
}

func (r *Reconciler) untrack(t *Task) {
	r.mu.Lock()
	delete(r.inflight, t)
	r.mu.Unlock()
}

// startFetch launches a fetch for gen. Only the latest fetch of a generation applies. Callers hold r.mu.
func (r *Reconciler) startFetch(uid string, gen uint64) *Task {
	r.fetchSeq++
	seq := r.fetchSeq
	saves := r.pendingSaves(uid, gen)
	t, ctx, cancel := r.track(TaskFetch, uid, gen)

	go func() {
		defer cancel()
		for _, s := range saves {
			select {
			case <-s.Done():
			case <-ctx.Done():
			}
		}
		list, err := r.remote.Fetch(ctx, uid)
		stale := r.applyFetch(uid, gen, seq, list, err)
		r.untrack(t)
		t.finish(err, stale)
	}()
	return t
}

// applyFetch installs a fetch result if gen and seq are still current and reports whether it was stale.
//
// Edits made while the fetch was pending are replayed onto the fetched list, which is then saved so
// memory, the local store and the remote document end up equal.
func (r *Reconciler) applyFetch(uid string, gen, seq uint64, list models.FavoritesList, err error) bool {
	r.mu.Lock()

	if gen != r.gen || seq != r.fetchSeq {
		current := r.gen
		r.mu.Unlock()
		r.logger.Debug("discarding stale fetch", "uid", uid, "generation", gen, "current", current)
		return true
	}

	changed := false
	switch {
	case err == nil:
		r.list = replay(list.Dedup(), r.edits)
		r.local.Save(r.list)
		changed = true
		r.logger.Info("replaced favorites with remote list", "uid", uid, "count", len(r.list), "replayed", len(r.edits))
	case errors.Is(err, shared.ErrDocumentNotFound):
		r.logger.Info("no remote favorites, keeping local list", "uid", uid, "count", len(r.list))
	default:
		r.logger.Warn("remote fetch failed, keeping local list", "uid", uid, "err", err)
	}

	deferred := r.deferred
	r.edits, r.deferred = nil, nil
	if len(deferred) > 0 {
		if err == nil || errors.Is(err, shared.ErrDocumentNotFound) {
			r.followSave(r.startSave(uid, gen, r.list.Clone()), deferred)
		} else {
			for _, d := range deferred {
				delete(r.inflight, d)
				d.finish(err, false)
			}
		}
	}
	r.setState(Synced)

	snapshot, hooks := r.list.Clone(), r.hooks
	r.mu.Unlock()

	if changed {
		notify(hooks, snapshot)
	}
	return false
}

// startSave launches a full-list save for gen. Callers hold r.mu.
func (r *Reconciler) startSave(uid string, gen uint64, list models.FavoritesList) *Task {
	t, ctx, cancel := r.track(TaskSave, uid, gen)

	go func() {
		defer cancel()

		if r.generation() != gen {
			r.logger.Debug("skipping stale save", "uid", uid, "generation", gen)
			r.untrack(t)
			t.finish(nil, true)
			return
		}

		err := r.remote.Save(ctx, uid, list)
		if err != nil {
			r.logger.Warn("remote save failed", "uid", uid, "count", len(list), "err", err)
		}
		stale := r.generation() != gen
		r.untrack(t)
		t.finish(err, stale)
	}()
	return t
}

// deferSave returns a save task that completes with the save issued once the pending fetch resolves.
// Callers hold r.mu.
func (r *Reconciler) deferSave() *Task {
	t := newTask(TaskSave, r.user.UID, r.gen)
	r.inflight[t] = struct{}{}
	r.deferred = append(r.deferred, t)
	return t
}

// followSave finishes every deferred task with save's outcome. Callers hold r.mu.
func (r *Reconciler) followSave(save *Task, deferred []*Task) {
	go func() {
		<-save.Done()
		for _, d := range deferred {
			r.untrack(d)
			d.finish(save.Err(), save.Stale())
		}
	}()
}

// dropDeferred abandons edits queued for a generation that just ended. Callers hold r.mu.
func (r *Reconciler) dropDeferred() {
	for _, d := range r.deferred {
		delete(r.inflight, d)
		d.finish(nil, true)
	}
	r.edits, r.deferred = nil, nil
}

// pendingSaves returns the saves in flight for uid under gen, excluding deferred ones. Callers hold r.mu.
func (r *Reconciler) pendingSaves(uid string, gen uint64) []*Task {
	var saves []*Task
	for t := range r.inflight {
		if t.kind == TaskSave && t.uid == uid && t.gen == gen && !slices.Contains(r.deferred, t) {
			saves = append(saves, t)
		}
	}
	return saves
}

// replay applies each edit's intended membership to list.
func replay(list models.FavoritesList, edits []pendingEdit) models.FavoritesList {
	for _, e := range edits {
		if list.Contains(e.movie.ID) != e.added {
			list, _ = list.Toggle(e.movie)
		}
	}
	return list
}

func (r *Reconciler) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func notify(hooks []func(models.FavoritesList), list models.FavoritesList) {
	for _, fn := range hooks {
		fn(list.Clone())
	}
}
