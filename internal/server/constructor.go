package server

import "log/slog"

// New создаёт сервер для store. Слушать начинает ListenAndServe или Serve.
func New(addr string, store Store, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		store:    store,
		log:      slog.Default(),
		maxConns: DefaultMaxConnections,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
