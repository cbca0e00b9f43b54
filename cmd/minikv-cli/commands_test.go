package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scott-cotton/cli"

	"minikv/internal/client"
	"minikv/internal/server"
	"minikv/internal/storage"
)

func startServer(t *testing.T) (string, *storage.Store) {
	t.Helper()

	store := storage.New(storage.Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(ln.Addr().String(), store, server.WithLogger(slog.New(slog.DiscardHandler)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		store.Close()
	})

	return ln.Addr().String(), store
}

// syncBuffer — bytes.Buffer, который можно читать, пока в него пишут.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCmd(t *testing.T, addr string, run func(context.Context, *client.Client, *printer, []string) error, args ...string) (string, error) {
	t.Helper()
	c, err := client.Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var out syncBuffer
	err = run(context.Background(), c, newPrinter(&out, false), args)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	addr, _ := startServer(t)

	steps := []struct {
		run  func(context.Context, *client.Client, *printer, []string) error
		args []string
		want string
	}{
		{runPing, nil, "\"PONG\"\n"},
		{runPing, []string{"hi"}, "\"hi\"\n"},
		{runGet, []string{"k"}, "(nil)\n"},
		{runSet, []string{"k", "v"}, "OK\n"},
		{runGet, []string{"k"}, "\"v\"\n"},
		{runSet, []string{"t", "v", "60000"}, "OK\n"},
		{runPublish, []string{"c", "m"}, "(integer) 0\n"},
	}

	for _, s := range steps {
		got, err := runCmd(t, addr, s.run, s.args...)
		if err != nil {
			t.Fatalf("%q: %v", s.args, err)
		}
		if got != s.want {
			t.Errorf("%q: output %q, want %q", s.args, got, s.want)
		}
	}
}

func TestCommandUsageErrors(t *testing.T) {
	addr, _ := startServer(t)

	cases := []struct {
		run  func(context.Context, *client.Client, *printer, []string) error
		args []string
	}{
		{runPing, []string{"a", "b"}},
		{runGet, nil},
		{runSet, []string{"k"}},
		{runSet, []string{"k", "v", "soon"}},
		{runPublish, []string{"c"}},
		{runSubscribe, nil},
	}

	for _, c := range cases {
		if _, err := runCmd(t, addr, c.run, c.args...); !errors.Is(err, cli.ErrUsage) {
			t.Errorf("%q: error %v, want usage error", c.args, err)
		}
	}
}

func TestSubscribeStreams(t *testing.T) {
	addr, store := startServer(t)

	c, err := client.Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- runSubscribe(ctx, c, newPrinter(&out, false), []string{"news"}) }()

	deadline := time.Now().Add(2 * time.Second)
	for store.Publish("news", []byte("hello")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for !strings.Contains(out.String(), "news: \"hello\"") {
		if time.Now().After(deadline) {
			t.Fatalf("message not printed, output %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runSubscribe = %v", err)
	}
	if !strings.HasPrefix(out.String(), "subscribed to news\n") {
		t.Errorf("output %q", out.String())
	}
}

func TestPrinterColor(t *testing.T) {
	var plain, colored bytes.Buffer
	newPrinter(&plain, false).ok()
	newPrinter(&colored, true).ok()

	if plain.String() != "OK\n" {
		t.Errorf("plain output %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("forced color output has no escape codes: %q", colored.String())
	}
}

func TestQuote(t *testing.T) {
	if got := quote([]byte("héllo")); got != `"héllo"` {
		t.Errorf("quote utf8 = %s", got)
	}
	if got := quote([]byte{0xff}); got != `"\xff"` {
		t.Errorf("quote binary = %s", got)
	}
}
