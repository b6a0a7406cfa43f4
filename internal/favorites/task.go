package favorites

import (
	"context"
	"sync"
)

// TaskKind names the remote operation a [Task] performs.
type TaskKind string

const (
	TaskFetch TaskKind = "fetch"
	TaskSave  TaskKind = "save"
)

// Task is a handle on one background remote operation.
type Task struct {
	kind TaskKind
	uid  string
	gen  uint64
	done chan struct{}

	mu    sync.Mutex
	err   error
	stale bool
}

func newTask(kind TaskKind, uid string, gen uint64) *Task {
	return &Task{kind: kind, uid: uid, gen: gen, done: make(chan struct{})}
}

func (t *Task) Kind() TaskKind { return t.kind }

// UID is the user the operation targets.
func (t *Task) UID() string { return t.uid }

// Generation is the identity generation the task was issued under.
func (t *Task) Generation() uint64 { return t.gen }

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the remote error, if any. Only meaningful after Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Stale reports whether the identity generation changed before the task's result could apply.
func (t *Task) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stale
}

// Wait blocks until the task finishes or ctx ends, returning the task error or ctx's error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error, stale bool) {
	t.mu.Lock()
	t.err = err
	t.stale = stale
	t.mu.Unlock()
	close(t.done)
}
