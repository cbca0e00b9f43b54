package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"minikv/internal/command"
	"minikv/internal/resp"
	"minikv/internal/storage/pubsub"
)

// Store — хранилище, которое обслуживает сервер.
type Store interface {
	command.Store
	NewSubscriber() *pubsub.Subscriber
}

// Server — TCP-сервер minikv (RESP2).
type Server struct {
	addr        string
	store       Store
	log         *slog.Logger
	maxConns    int64
	idleTimeout time.Duration
	limits      resp.Limits

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc

	connSeq atomic.Int64
	active  atomic.Int64
}
