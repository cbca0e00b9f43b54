package cache

import (
	"sync/atomic"
	"time"
)

// maxExpirePerShard ограничивает работу под одним Lock за проход.
const maxExpirePerShard = 128

// ExpireDue удаляет истёкшие на момент now ключи и запоминает ближайший
// оставшийся дедлайн. Возвращает число удалённых ключей и этот дедлайн
// (ok = false, если ключей с TTL не осталось).
//
// Если в каком-то шарде истёкших больше maxExpirePerShard, дедлайн
// окажется в прошлом, и следующий проход начнётся сразу.
func (c *Cache) ExpireDue(now time.Time) (removed int, next time.Time, ok bool) {
	nowNano := now.UnixNano()
	var nearest int64

	// Пока идёт обход, любой Set с TTL будит janitor ещё раз.
	c.nextExpire.Store(0)

	for i := 0; i < shardCount; i++ {
		n, deadline := c.shards[i].expireDue(nowNano, maxExpirePerShard)
		removed += n
		if deadline > 0 && (nearest == 0 || deadline < nearest) {
			nearest = deadline
		}
	}

	if removed > 0 {
		c.totalKeys.Add(-int64(removed))
	}

	// Set, прошедший во время обхода, уже положил сигнал в wakeCh,
	// так что перезапись его дедлайна здесь безопасна.
	c.nextExpire.Store(nearest)

	if nearest == 0 {
		return removed, time.Time{}, false
	}
	return removed, time.Unix(0, nearest), true
}

// evictLRU вытесняет один ключ с минимальным LastAccess среди выборки
// (до 5 ключей с каждого шарда).
func (c *Cache) evictLRU() {
	var (
		victimKey   string
		victimShard *shard
		minAccess   int64 = 1<<63 - 1
	)

	for i := 0; i < shardCount; i++ {
		s := c.shards[i]
		s.RLock()

		sampled := 0
		for _, item := range s.items {
			access := atomic.LoadInt64(&item.LastAccess)
			if access < minAccess {
				minAccess = access
				victimKey = item.Key
				victimShard = s
			}
			sampled++
			if sampled >= 5 {
				break
			}
		}

		s.RUnlock()
	}

	if victimShard != nil {
		if _, removed := victimShard.del(victimKey); removed {
			c.totalKeys.Add(-1)
		}
	}
}
