package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

const (
	TopicPosts  = "posts"
	TopicEvents = "events"
)

// Hub fans snapshots out to websocket clients of this instance and carries
// change notifications between instances over Redis.
type Hub struct {
	redis     *redis.Client
	pubsub    *redis.PubSub
	clients   map[string]map[*Client]struct{}
	listeners map[string][]func()
	providers map[string]func() []byte
	mu        sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:     redisClient,
		clients:   map[string]map[*Client]struct{}{},
		listeners: map[string][]func(){},
		providers: map[string]func() []byte{},
	}

	if redisClient != nil {
		h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
	}
	close(client.Send)
}

// Broadcast delivers payload to this instance's clients of topic. Slow
// clients miss the message; the next snapshot supersedes it anyway.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Provide registers the function returning the current snapshot of topic,
// sent to clients as soon as they connect.
func (h *Hub) Provide(topic string, fn func() []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers[topic] = fn
}

func (h *Hub) Current(topic string) ([]byte, bool) {
	h.mu.RLock()
	fn, ok := h.providers[topic]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	payload := fn()
	return payload, payload != nil
}

// OnChange registers fn to run whenever topic's collection changes on any
// instance.
func (h *Hub) OnChange(topic string, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[topic] = append(h.listeners[topic], fn)
}

// Notify announces that topic's collection changed. Without Redis the
// listeners run before Notify returns.
func (h *Hub) Notify(ctx context.Context, topic string) {
	if h.redis == nil {
		h.dispatch(topic)
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(topic), time.Now().UnixMilli()).Err(); err != nil {
		glog.Errorf("redis publish %s change: %v", topic, err)
		h.dispatch(topic)
	}
}

func (h *Hub) Close() error {
	if h.pubsub != nil {
		return h.pubsub.Close()
	}
	return nil
}

func (h *Hub) dispatch(topic string) {
	h.mu.RLock()
	listeners := append([]func(){}, h.listeners[topic]...)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

func (h *Hub) subscribeRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h.pubsub = h.redis.PSubscribe(ctx, "feed:*:changed")
	if _, err := h.pubsub.Receive(ctx); err != nil {
		glog.Errorf("redis subscribe: %v", err)
	}

	go func() {
		for msg := range h.pubsub.Channel() {
			if topic := topicFromChannel(msg.Channel); topic != "" {
				h.dispatch(topic)
			}
		}
	}()
}

func redisChannel(topic string) string {
	return "feed:" + topic + ":changed"
}

func topicFromChannel(ch string) string {
	// feed:{topic}:changed
	const prefix = "feed:"
	const suffix = ":changed"
	if len(ch) <= len(prefix)+len(suffix) || !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
