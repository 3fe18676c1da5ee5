// Package feed implements incremental loading of a ranked feed with a
// remembered cursor.
//
// A Feed hands out one page per Next call. Calls that arrive while a fetch
// is outstanding share that fetch's result instead of starting another, so
// a page is never appended twice. A short page marks the feed exhausted and
// later calls return an empty page without touching the store until Reset.
// Close cancels any outstanding fetch; its result is discarded.
package feed

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/paging"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("feed: closed")
	// ErrDiscarded is returned when the feed was reset or closed while the
	// caller's fetch was outstanding.
	ErrDiscarded = errors.New("feed: result discarded")
)

// FetchFunc loads up to limit documents strictly after cursor (nil means
// the first page).
type FetchFunc[T any] func(ctx context.Context, cursor *paging.Cursor, limit int) (paging.Page[T], error)

// Feed is one client's position in a ranked feed. It is safe for
// concurrent use.
type Feed[T any] struct {
	fetch   FetchFunc[T]
	size    int
	timeout time.Duration
	now     func() time.Time

	base   context.Context
	cancel context.CancelFunc
	sf     singleflight.Group

	mu        sync.Mutex
	cursor    *paging.Cursor
	exhausted bool
	closed    bool
	gen       uint64
	lastUsed  time.Time

	// settled runs after a fetch has updated the feed but before its
	// flight is released. Tests use it to order callers.
	settled func()
}

// Option configures a Feed.
type Option func(*options)

type options struct {
	timeout time.Duration
	now     func() time.Time
}

// WithFetchTimeout bounds each store fetch. Zero means no bound beyond the
// feed's own lifetime.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock overrides time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns a Feed that fetches pageSize documents per page.
func New[T any](fetch FetchFunc[T], pageSize int, opts ...Option) *Feed[T] {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if pageSize < 1 {
		pageSize = paging.DefaultPageSize
	}
	base, cancel := context.WithCancel(context.Background())
	return &Feed[T]{
		fetch:    fetch,
		size:     pageSize,
		timeout:  o.timeout,
		now:      o.now,
		base:     base,
		cancel:   cancel,
		lastUsed: o.now(),
	}
}

// Next returns the next page. When the feed is exhausted it returns an empty
// exhausted page without fetching. If ctx ends first, Next returns ctx.Err()
// and the shared fetch keeps running for any other waiters.
func (f *Feed[T]) Next(ctx context.Context) (paging.Page[T], error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return paging.Page[T]{}, ErrClosed
	}
	f.lastUsed = f.now()
	if f.exhausted {
		f.mu.Unlock()
		return paging.Page[T]{Items: []T{}, Exhausted: true}, nil
	}
	// Joined under f.mu and keyed by position: a caller that sees the cursor
	// left by a settled fetch starts the next page.
	gen := f.gen
	cursor := f.cursor
	ch := f.sf.DoChan(flightKey(gen, cursor), func() (any, error) {
		return f.load(gen, cursor)
	})
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return paging.Page[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return paging.Page[T]{}, res.Err
		}
		return res.Val.(paging.Page[T]), nil
	}
}

func (f *Feed[T]) load(gen uint64, cursor *paging.Cursor) (paging.Page[T], error) {
	ctx := f.base
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	page, err := f.fetch(ctx, cursor, f.size)
	page, err = f.settle(gen, page, err)
	if f.settled != nil {
		f.settled()
	}
	return page, err
}

func (f *Feed[T]) settle(gen uint64, page paging.Page[T], err error) (paging.Page[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.gen != gen {
		return paging.Page[T]{}, ErrDiscarded
	}
	if err != nil {
		return paging.Page[T]{}, err
	}
	if page.NextCursor != nil {
		f.cursor = page.NextCursor
	}
	f.exhausted = page.Exhausted
	return page, nil
}

func flightKey(gen uint64, cursor *paging.Cursor) string {
	key := strconv.FormatUint(gen, 10)
	if cursor == nil {
		return key + "|"
	}
	return key + "|" + strconv.FormatInt(cursor.Count, 10) + "|" + cursor.ID
}

// Reset restarts the feed from the first page. A fetch outstanding at the
// time of the reset is discarded.
func (f *Feed[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.cursor = nil
	f.exhausted = false
	f.lastUsed = f.now()
}

// Exhausted reports whether the last fetch returned a short page.
func (f *Feed[T]) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhausted
}

// LastUsed returns the time of the last Next or Reset.
func (f *Feed[T]) LastUsed() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed
}

// Close cancels any outstanding fetch. Close is idempotent.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cancel()
}
