package janitor

import (
	"log/slog"
	"sync"
	"time"
)

// Expirer — то, что janitor умеет чистить.
// ExpireDue удаляет истёкшие к now ключи и возвращает ближайший дедлайн,
// Wake сигналит, что появился дедлайн раньше известного.
type Expirer interface {
	ExpireDue(now time.Time) (removed int, next time.Time, ok bool)
	Wake() <-chan struct{}
}

// Janitor — фоновая задача, удаляющая ключи с истёкшим TTL.
// Спит до ближайшего дедлайна, без периодического опроса.
type Janitor struct {
	target Expirer
	log    *slog.Logger

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  bool
}
