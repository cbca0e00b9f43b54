// Package storage собирает общее хранилище сервера: шардированный кеш
// ключей с TTL, janitor для истёкших ключей и реестр pub/sub каналов.
package storage

import (
	"log/slog"
	"sync"
	"time"

	"minikv/internal/storage/cache"
	"minikv/internal/storage/janitor"
	"minikv/internal/storage/pubsub"
)

// Options — параметры Store. Нулевое значение годится.
type Options struct {
	// MaxKeys — лимит ключей, 0 = без лимита.
	MaxKeys int64
	// ChannelBacklog — буфер каждого подписчика, 0 = pubsub.DefaultBacklog.
	ChannelBacklog int
	Logger         *slog.Logger
}

// Store — хранилище, общее для всех соединений. Все методы потокобезопасны.
type Store struct {
	cache   *cache.Cache
	janitor *janitor.Janitor
	hub     *pubsub.Hub

	closeOnce sync.Once
}

// New создаёт хранилище и запускает janitor. Вызывающий обязан позвать Close.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := cache.NewWithMaxKeys(opts.MaxKeys)
	s := &Store{
		cache:   c,
		janitor: janitor.New(c, logger),
		hub:     pubsub.NewHub(opts.ChannelBacklog, logger),
	}
	s.janitor.Start()
	return s
}

// Get возвращает значение ключа. Истёкший ключ отсутствует.
func (s *Store) Get(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

// Set записывает значение. ttl <= 0 — без истечения.
// Store забирает value: вызывающий не должен его менять.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

// Delete удаляет ключ. Возвращает true, если ключ был жив.
func (s *Store) Delete(key string) bool {
	return s.cache.Delete(key)
}

// Len возвращает число ключей в памяти.
func (s *Store) Len() int64 {
	return s.cache.Len()
}

// Publish рассылает сообщение подписчикам канала.
// Возвращает число подписчиков, принявших сообщение.
func (s *Store) Publish(channel string, payload []byte) int {
	return s.hub.Publish(channel, payload)
}

// NewSubscriber создаёт подписчика без каналов.
func (s *Store) NewSubscriber() *pubsub.Subscriber {
	return s.hub.NewSubscriber()
}

// Close останавливает janitor. Повторный вызов безопасен.
func (s *Store) Close() {
	s.closeOnce.Do(s.janitor.Stop)
}
