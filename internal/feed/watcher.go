package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Source runs the collection's ordered query and returns the full result.
type Source[T any] func(ctx context.Context) ([]T, error)

// Hub is the change-notification and fan-out side of the live stream.
type Hub interface {
	OnChange(topic string, fn func())
	Broadcast(topic string, payload []byte)
	Provide(topic string, fn func() []byte)
}

// Snapshot is the payload pushed to stream clients.
type Snapshot[T any] struct {
	Topic string `json:"topic"`
	Items []T    `json:"items"`
}

// Watcher keeps a Cache in step with its Source: every change notification
// for the topic re-runs the query and replaces the cache.
type Watcher[T any] struct {
	topic   string
	source  Source[T]
	cache   *Cache[T]
	hub     Hub
	timeout time.Duration
	mu      sync.Mutex
}

func NewWatcher[T any](topic string, source Source[T], cache *Cache[T], hub Hub) *Watcher[T] {
	return &Watcher[T]{
		topic:   topic,
		source:  source,
		cache:   cache,
		hub:     hub,
		timeout: 5 * time.Second,
	}
}

func (w *Watcher[T]) Cache() *Cache[T] {
	return w.cache
}

// Start wires the watcher to the hub and loads the first snapshot.
func (w *Watcher[T]) Start(ctx context.Context) error {
	if w.hub != nil {
		w.cache.OnSnapshot(func(items []T) {
			w.hub.Broadcast(w.topic, w.encode(items))
		})
		w.hub.Provide(w.topic, func() []byte {
			return w.encode(w.cache.CurrentItems())
		})
		w.hub.OnChange(w.topic, func() {
			_ = w.Refresh(context.Background())
		})
	}
	return w.Refresh(ctx)
}

// Refresh re-runs the query and replaces the cache. Refreshes are serialised
// so the cache always holds the most recently fetched snapshot.
func (w *Watcher[T]) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	items, err := w.source(ctx)
	if err != nil {
		glog.Errorf("refresh %s snapshot: %v", w.topic, err)
		return err
	}
	w.cache.Replace(items)
	glog.V(1).Infof("%s snapshot replaced with %d items", w.topic, len(items))
	return nil
}

func (w *Watcher[T]) encode(items []T) []byte {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(Snapshot[T]{Topic: w.topic, Items: items})
	if err != nil {
		glog.Errorf("encode %s snapshot: %v", w.topic, err)
		return nil
	}
	return payload
}
