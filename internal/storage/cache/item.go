package cache

import "time"

// IsExpired проверяет, истёк ли TTL элемента на момент now (unix nano).
func (i *Item) IsExpired(now int64) bool {
	return i.ExpireAt > 0 && now >= i.ExpireAt
}

// expireAtFrom переводит TTL в абсолютный дедлайн. ttl <= 0 — без TTL.
func expireAtFrom(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixNano()
}
