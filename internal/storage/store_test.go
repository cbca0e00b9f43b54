package storage

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreGetSet(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("hello", []byte("world"), 0)
	val, found := s.Get("hello")
	if !found || string(val) != "world" {
		t.Fatalf("Get = %q, %v", val, found)
	}

	if !s.Delete("hello") {
		t.Fatal("Delete returned false")
	}
	if _, found := s.Get("hello"); found {
		t.Fatal("deleted key still present")
	}
}

func TestStoreBackgroundExpiry(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("a", []byte("1"), 30*time.Millisecond)
	s.Set("b", []byte("2"), 0)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Len = %d, expired key never swept", s.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStorePublishSubscribe(t *testing.T) {
	s := New(Options{ChannelBacklog: 4})
	defer s.Close()

	sub := s.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("foo")

	if n := s.Publish("foo", []byte("bar")); n != 1 {
		t.Fatalf("Publish = %d, want 1", n)
	}

	select {
	case msg := <-sub.Messages():
		if msg.Channel != "foo" || string(msg.Payload) != "bar" {
			t.Fatalf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
}

func TestStoreCloseIdempotent(t *testing.T) {
	s := New(Options{})
	s.Close()
	s.Close()
}

func TestStoreMaxKeys(t *testing.T) {
	s := New(Options{MaxKeys: 10})
	defer s.Close()

	for i := 0; i < 100; i++ {
		s.Set("k"+strconv.Itoa(i), []byte("v"), 0)
	}
	if s.Len() > 10 {
		t.Fatalf("Len = %d, cap 10 not enforced", s.Len())
	}
}

// TestStress10K — 10 000 параллельных клиентов: SET/GET/PUBLISH вперемешку.
func TestStress10K(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}

	const (
		users      = 10_000
		opsPerUser = 50
		keySpace   = 20_000
	)

	s := New(Options{})
	defer s.Close()

	sub := s.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("events")

	var received atomic.Int64
	stopReader := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-sub.Messages():
				received.Add(1)
			case <-stopReader:
				return
			}
		}
	}()

	var (
		totalOps  atomic.Int64
		totalHits atomic.Int64
		delivered atomic.Int64
	)

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
				case roll < 60:
					if _, found := s.Get(key); found {
						totalHits.Add(1)
					}
				case roll < 95:
					s.Set(key, []byte("val"), time.Duration(rng.Intn(50))*time.Millisecond)
				default:
					delivered.Add(int64(s.Publish("events", []byte(key))))
				}
				totalOps.Add(1)
			}
		}(u)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Дочитываем всё, что успело попасть в буфер.
	deadline := time.Now().Add(2 * time.Second)
	for received.Load() < delivered.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(stopReader)
	<-readerDone

	ops := totalOps.Load()
	opsPerSec := float64(ops) / elapsed.Seconds()

	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║         STORE STRESS TEST: 10K USERS             ║")
	fmt.Println("╠══════════════════════════════════════════════════╣")
	fmt.Printf("║  Total ops:       %10d                     ║\n", ops)
	fmt.Printf("║  Duration:        %10v                     ║\n", elapsed.Round(time.Millisecond))
	fmt.Printf("║  Throughput:      %10.0f ops/sec             ║\n", opsPerSec)
	fmt.Printf("║  Published/Recv:  %10d / %-10d        ║\n", delivered.Load(), received.Load())
	fmt.Println("╚══════════════════════════════════════════════════╝")

	if received.Load() != delivered.Load() {
		t.Fatalf("delivered %d, received %d", delivered.Load(), received.Load())
	}
}
