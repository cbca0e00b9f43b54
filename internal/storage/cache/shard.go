package cache

import (
	"container/heap"
	"hash/fnv"
	"sync/atomic"
	"time"
)

const shardCount = 64

func newShard() *shard {
	s := &shard{
		items: make(map[string]*Item),
		pq:    make(priorityQueue, 0),
	}
	heap.Init(&s.pq)
	return s
}

// getShard возвращает шард для данного ключа по FNV-хешу.
func (c *Cache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()&(shardCount-1)]
}

// set записывает значение в шард. Возвращает true, если в map появилась
// новая запись.
func (s *shard) set(key string, value []byte, expireAt int64) bool {
	s.Lock()
	defer s.Unlock()

	now := nowCached()

	if item, exist := s.items[key]; exist {
		item.Value = value
		item.ExpireAt = expireAt
		atomic.StoreInt64(&item.LastAccess, now)
		s.pq.track(item)
		return false
	}

	item := &Item{
		Key:        key,
		Value:      value,
		ExpireAt:   expireAt,
		LastAccess: now,
		HeapIndex:  -1,
	}
	s.items[key] = item
	s.pq.track(item)
	return true
}

// get возвращает значение из шарда. Истёкший ключ удаляется сразу (lazy expiry),
// тогда removed = true.
func (s *shard) get(key string) (value []byte, found, removed bool) {
	s.RLock()
	item, exists := s.items[key]
	if !exists {
		s.RUnlock()
		return nil, false, false
	}

	if !item.IsExpired(time.Now().UnixNano()) {
		val := item.Value
		atomic.StoreInt64(&item.LastAccess, nowCached())
		s.RUnlock()
		return val, true, false
	}
	s.RUnlock()

	// Ключ протух, для удаления нужен write lock
	s.Lock()
	defer s.Unlock()

	item, exists = s.items[key]
	if !exists {
		return nil, false, false
	}
	if item.IsExpired(time.Now().UnixNano()) {
		delete(s.items, key)
		s.pq.untrack(item)
		return nil, false, true
	}
	// Ключ перезаписали, пока ждали Lock
	atomic.StoreInt64(&item.LastAccess, nowCached())
	return item.Value, true, false
}

// del удаляет ключ из шарда. Возвращает true, если удалён живой ключ.
func (s *shard) del(key string) (deleted, removed bool) {
	s.Lock()
	defer s.Unlock()

	item, exists := s.items[key]
	if !exists {
		return false, false
	}

	delete(s.items, key)
	s.pq.untrack(item)
	return !item.IsExpired(time.Now().UnixNano()), true
}

// expireDue снимает с вершины heap до limit истёкших ключей.
// Возвращает число удалённых и ближайший оставшийся дедлайн.
func (s *shard) expireDue(now int64, limit int) (int, int64) {
	s.Lock()
	defer s.Unlock()

	removed := 0
	for s.pq.Len() > 0 && removed < limit {
		top := s.pq[0]
		if top.ExpireAt > now {
			break
		}
		heap.Pop(&s.pq)
		delete(s.items, top.Key)
		removed++
	}
	return removed, s.pq.peek()
}
