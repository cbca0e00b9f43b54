// Package cache — шардированное in-memory key-value хранилище
// с per-key TTL и опциональным лимитом ключей.
package cache

import (
	"time"
)

// New создаёт кеш без лимита ключей.
func New() *Cache {
	return NewWithMaxKeys(0)
}

// NewWithMaxKeys создаёт кеш с лимитом ключей (0 = без лимита).
// При превышении лимита вытесняется примерно самый давно читанный ключ.
func NewWithMaxKeys(maxKeys int64) *Cache {
	startClock()

	c := &Cache{
		maxKeys: maxKeys,
		wakeCh:  make(chan struct{}, 1),
	}

	for i := 0; i < shardCount; i++ {
		c.shards[i] = newShard()
	}

	return c
}

// Set устанавливает значение ключа. ttl <= 0 — без TTL.
// Кеш забирает value себе: вызывающий не должен его менять.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	expireAt := expireAtFrom(ttl)
	s := c.getShard(key)

	if c.maxKeys > 0 && c.totalKeys.Load() >= c.maxKeys {
		s.RLock()
		_, exists := s.items[key]
		s.RUnlock()

		if !exists {
			c.evictLRU()
		}
	}

	if s.set(key, value, expireAt) {
		c.totalKeys.Add(1)
	}

	if expireAt > 0 {
		c.advanceDeadline(expireAt)
	}
}

// Get возвращает значение по ключу. Истёкший ключ считается отсутствующим.
// Возвращённый срез менять нельзя.
func (c *Cache) Get(key string) ([]byte, bool) {
	val, found, removed := c.getShard(key).get(key)
	if removed {
		c.totalKeys.Add(-1)
	}
	return val, found
}

// Delete удаляет ключ. Возвращает true, если ключ был жив.
func (c *Cache) Delete(key string) bool {
	deleted, removed := c.getShard(key).del(key)
	if removed {
		c.totalKeys.Add(-1)
	}
	return deleted
}

// Len возвращает число записей в RAM, включая истёкшие, но ещё не убранные.
func (c *Cache) Len() int64 {
	return c.totalKeys.Load()
}

// Wake — канал, в который Set сигналит о новом ближайшем дедлайне.
func (c *Cache) Wake() <-chan struct{} {
	return c.wakeCh
}

// NextExpiration возвращает ближайший известный дедлайн.
// ok = false, если ключей с TTL нет.
func (c *Cache) NextExpiration() (time.Time, bool) {
	next := c.nextExpire.Load()
	if next == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, next), true
}

// advanceDeadline сдвигает nextExpire на expireAt, если тот раньше,
// и будит janitor.
func (c *Cache) advanceDeadline(expireAt int64) {
	for {
		cur := c.nextExpire.Load()
		if cur != 0 && cur <= expireAt {
			return
		}
		if c.nextExpire.CompareAndSwap(cur, expireAt) {
			select {
			case c.wakeCh <- struct{}{}:
			default:
			}
			return
		}
	}
}
