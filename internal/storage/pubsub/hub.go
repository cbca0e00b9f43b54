// Package pubsub — реестр каналов publish/subscribe.
//
// Доставка с потерями: у каждого подписчика ограниченный буфер,
// и если он полон, сообщение этому подписчику не достаётся.
package pubsub

import (
	"log/slog"
	"sort"
	"sync"
)

// DefaultBacklog — ёмкость буфера подписчика по умолчанию.
const DefaultBacklog = 1024

// Message — опубликованное сообщение.
// Payload общий для всех получателей, менять его нельзя.
type Message struct {
	Channel string
	Payload []byte
}

// Hub хранит подписчиков по каналам.
// Запись канала создаётся при первой подписке и больше не удаляется.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
	backlog  int
	log      *slog.Logger
}

// NewHub создаёт реестр. backlog <= 0 означает DefaultBacklog,
// logger может быть nil.
func NewHub(backlog int, logger *slog.Logger) *Hub {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		backlog:  backlog,
		log:      logger.With("component", "pubsub"),
	}
}

// Publish рассылает payload всем подписчикам channel, не блокируясь.
// Возвращает число подписчиков, чей буфер принял сообщение.
func (h *Hub) Publish(channel string, payload []byte) int {
	msg := Message{Channel: channel, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.channels[channel] {
		select {
		case sub.inbox <- msg:
			delivered++
		default:
			h.log.Debug("subscriber backlog full, message dropped",
				"channel", channel, "backlog", cap(sub.inbox))
		}
	}
	return delivered
}

// NewSubscriber создаёт подписчика без каналов.
func (h *Hub) NewSubscriber() *Subscriber {
	return &Subscriber{
		hub:      h,
		inbox:    make(chan Message, h.backlog),
		channels: make(map[string]struct{}),
	}
}

// ChannelCount возвращает число известных каналов, включая пустые.
func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// SubscriberCount возвращает число подписчиков канала.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) add(channel string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}
}

func (h *Hub) remove(sub *Subscriber, channels ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range channels {
		delete(h.channels[ch], sub)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
