package directory

import (
	"errors"
	"sync"
)

// ErrNilListener is returned when registering a nil listener.
var ErrNilListener = errors.New("listener must not be nil")

// Registry is an ordered, concurrency-safe set of listener instances.
// Listeners are reported in registration order.
type Registry[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
}

type entry[T any] struct {
	id uint64
	l  T
}

func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Register appends l and returns a function that removes it again.
// The returned function is idempotent.
func (r *Registry[T]) Register(l T) (func(), error) {
	if any(l) == nil {
		return nil, ErrNilListener
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[T]{id: id, l: l})
	r.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { r.remove(id) }) }, nil
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// All returns a snapshot of the currently registered listeners.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.l
	}
	return out
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
