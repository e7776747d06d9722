// Package feed keeps the in-process view of a live collection: the last
// snapshot delivered by the store plus any optimistic patches still waiting
// for the store to echo them back.
package feed

import (
	"slices"
	"sync"
	"time"
)

// Patch rewrites a view. It must not mutate the slice it receives.
type Patch[T any] func(items []T) []T

// Reflected reports whether a snapshot already contains a patch's effect.
type Reflected[T any] func(snapshot []T) bool

type pending[T any] struct {
	tag       string
	patch     Patch[T]
	reflected Reflected[T]
	appliedAt time.Time
}

// Cache is replaced wholesale on every snapshot. Handlers registered with
// OnSnapshot run after every change of the view and must not call back into
// the cache.
type Cache[T any] struct {
	mu       sync.RWMutex
	emitMu   sync.Mutex
	base     []T
	view     []T
	pending  []pending[T]
	handlers map[int]func([]T)
	nextID   int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache returns an empty cache. Optimistic patches older than ttl are
// dropped on the next snapshot; ttl <= 0 keeps them until reflected.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		handlers: map[int]func([]T){},
		ttl:      ttl,
		now:      time.Now,
	}
}

// CurrentItems returns a copy of the current view.
func (c *Cache[T]) CurrentItems() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.view)
}

// OnSnapshot registers handler and returns a function that removes it.
func (c *Cache[T]) OnSnapshot(handler func([]T)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// Replace installs snapshot as the new base. Pending patches the snapshot
// already reflects, or that have expired, are dropped; the rest are
// re-applied on top.
func (c *Cache[T]) Replace(snapshot []T) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.base = slices.Clone(snapshot)
	now := c.now()
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.reflected != nil && p.reflected(c.base) {
			continue
		}
		if c.ttl > 0 && now.Sub(p.appliedAt) > c.ttl {
			continue
		}
		kept = append(kept, p)
	}
	c.pending = kept
	view, handlers := c.rebuildLocked()
	c.mu.Unlock()

	emit(handlers, view)
}

// Apply records an optimistic patch under tag and republishes the view.
// A patch with the same tag replaces the earlier one.
func (c *Cache[T]) Apply(tag string, patch Patch[T], reflected Reflected[T]) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.pending = slices.DeleteFunc(c.pending, func(p pending[T]) bool { return p.tag == tag })
	c.pending = append(c.pending, pending[T]{tag: tag, patch: patch, reflected: reflected, appliedAt: c.now()})
	view, handlers := c.rebuildLocked()
	c.mu.Unlock()

	emit(handlers, view)
}

// Discard drops the patch recorded under tag, typically after the remote
// call it anticipated has failed.
func (c *Cache[T]) Discard(tag string) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	before := len(c.pending)
	c.pending = slices.DeleteFunc(c.pending, func(p pending[T]) bool { return p.tag == tag })
	if len(c.pending) == before {
		c.mu.Unlock()
		return
	}
	view, handlers := c.rebuildLocked()
	c.mu.Unlock()

	emit(handlers, view)
}

// Pending returns the number of optimistic patches not yet reflected.
func (c *Cache[T]) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

func (c *Cache[T]) rebuildLocked() ([]T, []func([]T)) {
	view := slices.Clone(c.base)
	for _, p := range c.pending {
		view = p.patch(view)
	}
	c.view = view

	handlers := make([]func([]T), 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	return slices.Clone(view), handlers
}

func emit[T any](handlers []func([]T), view []T) {
	for _, h := range handlers {
		h(view)
	}
}
