package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// MemoryLocal is an in-memory favorites local store that counts saves.
type MemoryLocal struct {
	mu    sync.Mutex
	list  models.FavoritesList
	saves int
}

// NewMemoryLocal returns a local store holding ids as bare items.
func NewMemoryLocal(ids ...models.ItemID) *MemoryLocal {
	return &MemoryLocal{list: Items(ids...)}
}

func (m *MemoryLocal) Load() models.FavoritesList {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Clone()
}

func (m *MemoryLocal) Save(list models.FavoritesList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = list.Clone()
	m.saves++
}

// SaveCount returns how many times Save was called.
func (m *MemoryLocal) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// RemoteSave records one call to [MemoryRemote.Save].
type RemoteSave struct {
	UID  string
	List models.FavoritesList
}

// MemoryRemote is an in-memory remote favorites store. Fetches and saves can be held open to
// simulate slow requests.
type MemoryRemote struct {
	mu        sync.Mutex
	docs      map[string]models.FavoritesList
	fetches   []string
	saves     []RemoteSave
	fetchGate chan struct{}
	saveGate  chan struct{}
	readFirst bool

	FetchErr error
	SaveErr  error
}

func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{docs: make(map[string]models.FavoritesList)}
}

// Seed stores list as uid's document.
func (m *MemoryRemote) Seed(uid string, list models.FavoritesList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[uid] = list.Clone()
}

// Doc returns uid's document.
func (m *MemoryRemote) Doc(uid string) (models.FavoritesList, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.docs[uid]
	return list.Clone(), ok
}

// HoldFetches blocks every Fetch until the returned release func is called.
func (m *MemoryRemote) HoldFetches() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.fetchGate = gate
	m.mu.Unlock()
	return sync.OnceFunc(func() { close(gate) })
}

// HoldFetchesAfterRead lets every Fetch read its document immediately but return it only after the
// returned release func is called.
func (m *MemoryRemote) HoldFetchesAfterRead() (release func()) {
	release = m.HoldFetches()
	m.mu.Lock()
	m.readFirst = true
	m.mu.Unlock()
	return release
}

// HoldSaves blocks every Save until the returned release func is called.
func (m *MemoryRemote) HoldSaves() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.saveGate = gate
	m.mu.Unlock()
	return sync.OnceFunc(func() { close(gate) })
}

// Fetches returns the uids fetched so far.
func (m *MemoryRemote) Fetches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetches...)
}

// Saves returns every save received so far, in arrival order.
func (m *MemoryRemote) Saves() []RemoteSave {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RemoteSave(nil), m.saves...)
}

func (m *MemoryRemote) Fetch(ctx context.Context, uid string) (models.FavoritesList, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, uid)
	gate, readFirst := m.fetchGate, m.readFirst
	var (
		list models.FavoritesList
		err  error
	)
	if readFirst {
		list, err = m.read(uid)
	}
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	if readFirst {
		return list, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(uid)
}

func (m *MemoryRemote) read(uid string) (models.FavoritesList, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	list, ok := m.docs[uid]
	if !ok {
		return nil, shared.ErrDocumentNotFound
	}
	return list.Clone(), nil
}

func (m *MemoryRemote) Save(ctx context.Context, uid string, list models.FavoritesList) error {
	m.mu.Lock()
	m.saves = append(m.saves, RemoteSave{UID: uid, List: list.Clone()})
	gate := m.saveGate
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.docs[uid] = list.Clone()
	return nil
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items builds a list of bare items with the given ids.
func Items(ids ...models.ItemID) models.FavoritesList {
	list := make(models.FavoritesList, len(ids))
	for i, id := range ids {
		list[i] = models.Movie{ID: id, Title: "Movie " + id.String()}
	}
	return list
}
