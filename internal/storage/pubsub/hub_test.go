package pubsub

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func recv(t *testing.T, sub *Subscriber) Message {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestPublishFanOut(t *testing.T) {
	h := NewHub(0, nil)

	subs := make([]*Subscriber, 5)
	for i := range subs {
		subs[i] = h.NewSubscriber()
		if n := subs[i].Subscribe("news"); n != 1 {
			t.Fatalf("Subscribe returned %d", n)
		}
	}

	if n := h.Publish("news", []byte("hi")); n != len(subs) {
		t.Fatalf("Publish delivered to %d, want %d", n, len(subs))
	}

	want := Message{Channel: "news", Payload: []byte("hi")}
	for _, sub := range subs {
		if diff := cmp.Diff(want, recv(t, sub)); diff != "" {
			t.Errorf("message mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	h := NewHub(0, nil)
	if n := h.Publish("empty", []byte("x")); n != 0 {
		t.Fatalf("Publish = %d, want 0", n)
	}
	if h.ChannelCount() != 0 {
		t.Fatal("publish must not create channels")
	}
}

func TestBacklogOverflowDrops(t *testing.T) {
	h := NewHub(2, nil)
	slow := h.NewSubscriber()
	slow.Subscribe("c")
	fast := h.NewSubscriber()
	fast.Subscribe("c")

	if n := h.Publish("c", []byte("1")); n != 2 {
		t.Fatalf("first publish = %d", n)
	}
	recv(t, fast)
	if n := h.Publish("c", []byte("2")); n != 2 {
		t.Fatalf("second publish = %d", n)
	}
	recv(t, fast)

	// У slow буфер полон, fast успевает читать.
	if n := h.Publish("c", []byte("3")); n != 1 {
		t.Fatalf("third publish = %d, want 1", n)
	}
	if got := string(recv(t, fast).Payload); got != "3" {
		t.Fatalf("fast got %q", got)
	}

	for _, want := range []string{"1", "2"} {
		if got := string(recv(t, slow).Payload); got != want {
			t.Fatalf("slow got %q, want %q", got, want)
		}
	}
	select {
	case msg := <-slow.Messages():
		t.Fatalf("dropped message delivered: %q", msg.Payload)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub(0, nil)
	sub := h.NewSubscriber()

	sub.Subscribe("a")
	if n := sub.Subscribe("b"); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if n := sub.Subscribe("a"); n != 2 {
		t.Fatalf("duplicate subscribe changed count to %d", n)
	}

	if n := sub.Unsubscribe("a"); n != 1 {
		t.Fatalf("count after unsubscribe = %d", n)
	}
	if n := sub.Unsubscribe("missing"); n != 1 {
		t.Fatalf("unsubscribe of unknown channel changed count to %d", n)
	}

	if n := h.Publish("a", []byte("x")); n != 0 {
		t.Fatalf("publish to left channel delivered %d", n)
	}
	if diff := cmp.Diff([]string{"b"}, sub.Channels()); diff != "" {
		t.Errorf("channels (-want +got):\n%s", diff)
	}

	// Запись канала остаётся и после ухода последнего подписчика.
	if h.ChannelCount() != 2 {
		t.Fatalf("ChannelCount = %d, want 2", h.ChannelCount())
	}
}

func TestUnsubscribeAllAndClose(t *testing.T) {
	h := NewHub(0, nil)
	sub := h.NewSubscriber()
	for _, ch := range []string{"z", "a", "m"} {
		sub.Subscribe(ch)
	}

	if diff := cmp.Diff([]string{"a", "m", "z"}, sub.UnsubscribeAll()); diff != "" {
		t.Errorf("UnsubscribeAll (-want +got):\n%s", diff)
	}
	if sub.Count() != 0 || h.SubscriberCount("a") != 0 {
		t.Fatal("subscriptions left after UnsubscribeAll")
	}

	sub.Subscribe("a")
	sub.Close()
	sub.Close()
	if h.SubscriberCount("a") != 0 {
		t.Fatal("Close left the subscriber registered")
	}
	if n := sub.Subscribe("a"); n != 0 {
		t.Fatalf("Subscribe after Close = %d", n)
	}
}

func TestConcurrentPublish(t *testing.T) {
	const (
		publishers = 8
		perPub     = 100
	)

	h := NewHub(publishers*perPub, nil)
	sub := h.NewSubscriber()
	sub.Subscribe("c")

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPub; i++ {
				h.Publish("c", []byte(strconv.Itoa(p*perPub+i)))
			}
		}(p)
	}
	wg.Wait()

	if got := len(sub.Messages()); got != publishers*perPub {
		t.Fatalf("received %d messages, want %d", got, publishers*perPub)
	}
}
