package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Грубые часы для LastAccess: LRU не нужна точность time.Now(),
// а get вызывается на каждый GET.
var (
	cachedNow   atomic.Int64
	clockOnce   sync.Once
	clockPeriod = 100 * time.Millisecond
)

func startClock() {
	clockOnce.Do(func() {
		cachedNow.Store(time.Now().UnixNano())
		go func() {
			ticker := time.NewTicker(clockPeriod)
			for t := range ticker.C {
				cachedNow.Store(t.UnixNano())
			}
		}()
	})
}

// nowCached возвращает кешированное время (точность ~clockPeriod).
func nowCached() int64 {
	return cachedNow.Load()
}
