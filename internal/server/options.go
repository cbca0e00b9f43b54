package server

import (
	"log/slog"
	"time"

	"minikv/internal/resp"
)

// DefaultMaxConnections — лимит одновременных соединений по умолчанию.
const DefaultMaxConnections = 250

// Option — функциональная опция сервера.
type Option func(*Server)

// WithMaxConnections задаёт лимит одновременных соединений.
// n <= 0 оставляет значение по умолчанию.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxConns = int64(n)
		}
	}
}

// WithLogger задаёт логгер сервера.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIdleTimeout закрывает соединения вне режима подписки,
// молчащие дольше d. 0 — не закрывать.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// WithLimits задаёт ограничения на входящие фреймы.
func WithLimits(lim resp.Limits) Option {
	return func(s *Server) {
		s.limits = lim
	}
}
