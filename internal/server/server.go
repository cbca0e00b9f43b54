// Package server — TCP-сервер minikv: приём соединений, лимит
// одновременных клиентов и цикл обработки команд на каждое соединение.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Повторы Accept: пауза удваивается с initialAcceptBackoff,
// после maxAcceptBackoff сервер сдаётся.
const (
	initialAcceptBackoff = time.Second
	maxAcceptBackoff     = 64 * time.Second
)

// ListenAndServe слушает addr и обслуживает клиентов до отмены ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve принимает соединения с ln до отмены ctx или вызова Shutdown.
// Возвращается только после завершения всех обработчиков.
// Штатная остановка возвращает nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info("TCP listener started", "addr", ln.Addr().String(), "max_connections", s.maxConns)

	limiter := semaphore.NewWeighted(s.maxConns)
	var handlers errgroup.Group

	var serveErr error
	for {
		// Ждём свободный слот до Accept: лишние клиенты остаются в backlog ядра.
		if err := limiter.Acquire(ctx, 1); err != nil {
			break
		}

		conn, err := s.accept(ctx, ln)
		if err != nil {
			limiter.Release(1)
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				serveErr = err
			}
			break
		}

		handlers.Go(func() error {
			defer limiter.Release(1)
			s.handle(ctx, conn)
			return nil
		})
	}

	cancel()
	ln.Close()
	handlers.Wait()

	s.log.Info("TCP listener stopped", "addr", ln.Addr().String())
	return serveErr
}

// accept ждёт соединение, повторяя временные ошибки с экспоненциальной паузой.
func (s *Server) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	backoff := initialAcceptBackoff
	for {
		conn, err := ln.Accept()
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil, err
		}
		if backoff > maxAcceptBackoff {
			return nil, fmt.Errorf("accept: %w", err)
		}

		s.log.Warn("accept error", "error", err, "retry_in", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}

// Shutdown останавливает Serve. Обработчики завершаются между командами.
func (s *Server) Shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Addr возвращает адрес, который слушает сервер, или nil до запуска.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveConnections возвращает число обслуживаемых сейчас соединений.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}
