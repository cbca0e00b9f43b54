package cache

import (
	"bytes"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()

	if _, found := c.Get("missing"); found {
		t.Fatal("missing key reported as found")
	}

	c.Set("foo", []byte("bar"), 0)
	val, found := c.Get("foo")
	if !found || string(val) != "bar" {
		t.Fatalf("Get(foo) = %q, %v", val, found)
	}

	c.Set("foo", []byte("baz"), 0)
	val, _ = c.Get("foo")
	if string(val) != "baz" {
		t.Fatalf("overwrite: got %q", val)
	}

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c := New()

	c.Set("x", []byte("y"), 100*time.Millisecond)
	if val, found := c.Get("x"); !found || string(val) != "y" {
		t.Fatalf("before TTL: %q, %v", val, found)
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := c.Get("x"); found {
		t.Fatal("key still visible after TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("lazy expiry left %d keys", c.Len())
	}
}

func TestOverwriteClearsTTL(t *testing.T) {
	c := New()

	c.Set("k", []byte("v1"), 50*time.Millisecond)
	c.Set("k", []byte("v2"), 0)
	time.Sleep(80 * time.Millisecond)

	val, found := c.Get("k")
	if !found || string(val) != "v2" {
		t.Fatalf("got %q, %v; overwrite without TTL must persist", val, found)
	}

	if _, _, ok := c.ExpireDue(time.Now()); ok {
		t.Fatal("no deadlines should remain")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), 0)

	if !c.Delete("k") {
		t.Fatal("Delete of live key returned false")
	}
	if c.Delete("k") {
		t.Fatal("second Delete returned true")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after delete", c.Len())
	}
}

func TestExpireDue(t *testing.T) {
	c := New()

	for i := 0; i < 10; i++ {
		c.Set("short:"+strconv.Itoa(i), []byte("v"), 10*time.Millisecond)
	}
	c.Set("long", []byte("v"), time.Hour)
	c.Set("forever", []byte("v"), 0)

	removed, next, ok := c.ExpireDue(time.Now().Add(20 * time.Millisecond))
	if removed != 10 {
		t.Fatalf("removed %d, want 10", removed)
	}
	if !ok || time.Until(next) < 50*time.Minute {
		t.Fatalf("next deadline = %v, %v; want about an hour away", next, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestSetWakesOnEarlierDeadline(t *testing.T) {
	c := New()

	c.Set("late", []byte("v"), time.Hour)
	select {
	case <-c.Wake():
	default:
		t.Fatal("first deadline must wake the janitor")
	}

	c.Set("later", []byte("v"), 2*time.Hour)
	select {
	case <-c.Wake():
		t.Fatal("later deadline must not wake the janitor")
	default:
	}

	c.Set("soon", []byte("v"), time.Minute)
	select {
	case <-c.Wake():
	default:
		t.Fatal("earlier deadline must wake the janitor")
	}

	next, ok := c.NextExpiration()
	if !ok || time.Until(next) > 2*time.Minute {
		t.Fatalf("NextExpiration() = %v, %v", next, ok)
	}
}

func TestConcurrentSetSameKey(t *testing.T) {
	c := New()
	a := bytes.Repeat([]byte("a"), 1024)
	b := bytes.Repeat([]byte("b"), 1024)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if (g+i)%2 == 0 {
					c.Set("k", a, 0)
				} else {
					c.Set("k", b, 0)
				}
			}
		}(g)
	}
	wg.Wait()

	val, found := c.Get("k")
	if !found {
		t.Fatal("key lost")
	}
	if !bytes.Equal(val, a) && !bytes.Equal(val, b) {
		t.Fatalf("corrupted value %q", val[:16])
	}
}

func TestGetShardSpreadsKeys(t *testing.T) {
	c := New()

	if c.getShard("user:1") != c.getShard("user:1") {
		t.Fatal("same key mapped to different shards")
	}

	used := make(map[*shard]int)
	for i := 0; i < 10000; i++ {
		used[c.getShard("key:"+strconv.Itoa(i))]++
	}
	if len(used) != shardCount {
		t.Fatalf("keys landed in %d of %d shards", len(used), shardCount)
	}
	for _, n := range used {
		if n < 10000/shardCount/4 {
			t.Fatalf("skewed shard with %d keys", n)
		}
	}
}

func TestLRUEviction(t *testing.T) {
	const maxKeys = 1000

	c := NewWithMaxKeys(maxKeys)

	for i := 0; i < maxKeys; i++ {
		c.Set("key:"+strconv.Itoa(i), []byte("val"), 0)
	}

	if count := c.Len(); count != maxKeys {
		t.Fatalf("expected %d keys, got %d", maxKeys, count)
	}

	for i := maxKeys; i < maxKeys+500; i++ {
		c.Set("key:"+strconv.Itoa(i), []byte("newval"), 0)
	}

	if count := c.Len(); count > maxKeys {
		t.Fatalf("expected at most %d keys, got %d (eviction not working)", maxKeys, count)
	}
}

// TestStressMixed — параллельные SET/GET/DEL с TTL и фоновым ExpireDue.
func TestStressMixed(t *testing.T) {
	const (
		users      = 200
		opsPerUser = 2000
		keySpace   = 5000
	)

	c := New()

	var (
		totalSets atomic.Int64
		totalGets atomic.Int64
		totalHits atomic.Int64
		totalDels atomic.Int64
	)

	stop := make(chan struct{})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		for {
			select {
			case <-stop:
				return
			default:
				c.ExpireDue(time.Now())
				time.Sleep(time.Millisecond)
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(users)
	start := time.Now()

	for u := 0; u < users; u++ {
		go func(userID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(userID)))

			for op := 0; op < opsPerUser; op++ {
				key := "key:" + strconv.Itoa(rng.Intn(keySpace))
				switch roll := rng.Intn(100); {
				case roll < 70:
					totalGets.Add(1)
					if _, found := c.Get(key); found {
						totalHits.Add(1)
					}
				case roll < 90:
					ttl := time.Duration(rng.Intn(20)) * time.Millisecond
					c.Set(key, []byte("v"+strconv.Itoa(userID)), ttl)
					totalSets.Add(1)
				default:
					c.Delete(key)
					totalDels.Add(1)
				}
			}
		}(u)
	}

	wg.Wait()
	elapsed := time.Since(start)
	close(stop)
	<-sweeperDone

	total := totalSets.Load() + totalGets.Load() + totalDels.Load()

	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║          CACHE STRESS: MIXED OPS + TTL           ║")
	fmt.Println("╠══════════════════════════════════════════════════╣")
	fmt.Printf("║  Total ops:       %10d                     ║\n", total)
	fmt.Printf("║  Duration:        %10v                     ║\n", elapsed.Round(time.Millisecond))
	fmt.Printf("║  Hits/Gets:       %10d / %-10d        ║\n", totalHits.Load(), totalGets.Load())
	fmt.Println("╚══════════════════════════════════════════════════╝")

	// После полного прохода со временем в будущем живы только ключи без TTL.
	c.ExpireDue(time.Now().Add(time.Second))
	if n := c.Len(); n < 0 || n > keySpace {
		t.Fatalf("key counter drifted: %d", n)
	}
}

func BenchmarkSet(b *testing.B) {
	c := New()
	val := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key"+strconv.Itoa(i), val, 0)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	c := New()
	for i := 0; i < 10000; i++ {
		c.Set("key"+strconv.Itoa(i), []byte("value"), 0)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get("key" + strconv.Itoa(i%10000))
			i++
		}
	})
}
