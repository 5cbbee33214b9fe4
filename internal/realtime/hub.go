package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher is what services need to push newly written rows to subscribers.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishTopicEvent(topic, event string, payload []byte) error
}

// RedisSubscriber subscribes to topic channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeTopic(topic string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains topic -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: one Redis subscription per topic with local clients.
type Hub struct {
	// topic -> map[clientID]*Client
	topics   map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per topic
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// NewHub creates a new WebSocket hub. Both Redis sides may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics:   make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its topic. The Redis subscription is opened for the first client
// and retried on later registrations while the topic has none.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.topics[c.Topic] == nil {
		h.topics[c.Topic] = make(map[string]*Client)
	}
	h.topics[c.Topic][c.ID] = c
	if h.redisSub != nil && h.subs[c.Topic] == nil {
		h.subscribeLocked(c.Topic)
	}
	h.mu.Unlock()
	h.logger.Debug("client subscribed", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

func (h *Hub) subscribeLocked(topic string) {
	cancel, err := h.redisSub.SubscribeTopic(topic, func(event string, payload []byte) {
		h.Broadcast(topic, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("redis subscribe failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.subs[topic] = cancel
}

// Unregister removes a client from its topic. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.topics[c.Topic]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.topics, c.Topic)
			if cancel, ok := h.subs[c.Topic]; ok {
				cancel()
				delete(h.subs, c.Topic)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unsubscribed", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Broadcast sends a message to all local clients of a topic.
func (h *Hub) Broadcast(topic, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error("marshal push payload", zap.String("topic", topic), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Topic: topic, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client send buffer full, dropping push", zap.String("client_id", c.ID), zap.String("topic", topic))
		}
	}
}

// Publish delivers an event to every subscriber of topic across instances. With Redis the local
// broadcast happens in the Redis subscriber callback, so each client receives the event once.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal push payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishTopicEvent(topic, event, data); err != nil {
			h.logger.Error("redis publish failed", zap.String("topic", topic), zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.Broadcast(topic, event, json.RawMessage(data))
}

// SubscriberCount returns the number of local clients on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// ActiveSubscriptions returns the number of topics with an open Redis subscription.
func (h *Hub) ActiveSubscriptions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
