package cache

import (
	"sync"
	"sync/atomic"
)

// Item — элемент кеша.
type Item struct {
	Key        string
	Value      []byte
	ExpireAt   int64 // unix nano, 0 = без TTL
	LastAccess int64 // пишется под RLock, поэтому только через atomic
	HeapIndex  int
}

// priorityQueue — min-heap по ExpireAt. В нём лежат только элементы с TTL.
type priorityQueue []*Item

// shard — один шард кеша.
type shard struct {
	sync.RWMutex
	items map[string]*Item
	pq    priorityQueue
}

// Cache — шардированное in-memory хранилище с TTL.
type Cache struct {
	shards    [shardCount]*shard
	maxKeys   int64
	totalKeys atomic.Int64

	// nextExpire — ближайший известный дедлайн (unix nano, 0 = нет).
	// Set сдвигает его назад и будит janitor через wakeCh.
	nextExpire atomic.Int64
	wakeCh     chan struct{}
}
