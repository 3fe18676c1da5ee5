package feed

import (
	"sync"
	"time"
)

// Registry keeps one Feed per key (a signed-in user id).
type Registry[T any] struct {
	mu      sync.Mutex
	feeds   map[string]*Feed[T]
	newFeed func() *Feed[T]
	now     func() time.Time
}

// NewRegistry returns a Registry that builds feeds with newFeed.
func NewRegistry[T any](newFeed func() *Feed[T]) *Registry[T] {
	return &Registry[T]{
		feeds:   make(map[string]*Feed[T]),
		newFeed: newFeed,
		now:     time.Now,
	}
}

// Get returns the feed for key, creating it on first use.
func (r *Registry[T]) Get(key string) *Feed[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[key]
	if !ok {
		f = r.newFeed()
		r.feeds[key] = f
	}
	return f
}

// Remove closes and forgets the feed for key, if any.
func (r *Registry[T]) Remove(key string) {
	r.mu.Lock()
	f, ok := r.feeds[key]
	delete(r.feeds, key)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}

// Len returns the number of live feeds.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

// EvictIdle closes feeds unused for longer than idle and returns how many
// were evicted.
func (r *Registry[T]) EvictIdle(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Feed[T]
	for k, f := range r.feeds {
		if f.LastUsed().Before(cutoff) {
			stale = append(stale, f)
			delete(r.feeds, k)
		}
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// CloseAll closes every feed. Used at shutdown.
func (r *Registry[T]) CloseAll() {
	r.mu.Lock()
	feeds := r.feeds
	r.feeds = make(map[string]*Feed[T])
	r.mu.Unlock()

	for _, f := range feeds {
		f.Close()
	}
}
