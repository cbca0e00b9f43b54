package janitor

import (
	"time"
)

// idleWait — сколько спать, когда ключей с TTL нет.
// Реальное пробуждение в этом случае приходит через Wake.
const idleWait = time.Hour

// Start запускает фоновую горутину. Повторный вызов ничего не делает.
func (j *Janitor) Start() {
	if j.started {
		return
	}
	j.started = true
	go j.run()
}

// Stop останавливает janitor и ждёт выхода горутины.
// Безопасно вызывать несколько раз.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopCh)
	})
	if j.started {
		<-j.doneCh
	}
}

func (j *Janitor) run() {
	defer close(j.doneCh)

	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		removed, next, ok := j.target.ExpireDue(time.Now())
		if removed > 0 {
			j.log.Debug("expired keys purged", "count", removed)
		}

		wait := idleWait
		if ok {
			wait = time.Until(next)
			if wait < 0 {
				wait = 0
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
		case <-j.target.Wake():
			timer.Stop()
		case <-j.stopCh:
			j.log.Debug("janitor stopped")
			return
		}
	}
}
