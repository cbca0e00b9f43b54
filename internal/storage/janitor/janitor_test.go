package janitor

import (
	"strconv"
	"testing"
	"time"

	"minikv/internal/storage/cache"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestJanitorPurgesExpiredKeys(t *testing.T) {
	c := cache.New()
	j := New(c, nil)
	j.Start()
	defer j.Stop()

	for i := 0; i < 100; i++ {
		c.Set("k"+strconv.Itoa(i), []byte("v"), 50*time.Millisecond)
	}
	c.Set("keep", []byte("v"), 0)

	// Никто не читает ключи: удалить их может только janitor.
	waitFor(t, 2*time.Second, func() bool { return c.Len() == 1 })
}

func TestJanitorWakesForEarlierDeadline(t *testing.T) {
	c := cache.New()
	j := New(c, nil)
	j.Start()
	defer j.Stop()

	c.Set("late", []byte("v"), time.Hour)
	time.Sleep(20 * time.Millisecond)

	// janitor спит до "late"; новый дедлайн должен его разбудить.
	c.Set("soon", []byte("v"), 30*time.Millisecond)

	waitFor(t, time.Second, func() bool { return c.Len() == 1 })
	if _, found := c.Get("late"); !found {
		t.Fatal("long-lived key removed early")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	j := New(cache.New(), nil)
	j.Start()

	done := make(chan struct{})
	go func() {
		j.Stop()
		j.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStopWithoutStart(t *testing.T) {
	j := New(cache.New(), nil)
	j.Stop()
}
