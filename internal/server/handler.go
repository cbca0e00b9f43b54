package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"minikv/internal/command"
	"minikv/internal/resp"
	"minikv/internal/storage/pubsub"
)

// readResult — один фрейм (или ошибка) от читающей горутины.
type readResult struct {
	frame resp.Frame
	err   error
}

// handler обслуживает одно соединение.
// Читает фреймы отдельная горутина; всё остальное, включая запись,
// делает горутина handler.run.
type handler struct {
	srv  *Server
	conn net.Conn
	rc   *resp.Conn
	log  *slog.Logger

	// sub != nil — соединение в режиме подписки.
	sub        *pubsub.Subscriber
	subscribed atomic.Bool

	done chan struct{}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	s.active.Add(1)
	defer s.active.Add(-1)

	h := &handler{
		srv:  s,
		conn: conn,
		rc:   resp.NewConn(conn, s.limits),
		log:  s.log.With("conn", s.connSeq.Add(1), "remote", conn.RemoteAddr().String()),
		done: make(chan struct{}),
	}
	h.log.Debug("connection accepted")

	err := h.run(ctx)
	h.close()

	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		h.log.Debug("connection closed")
	case isTimeout(err):
		h.log.Info("idle connection closed", "idle_timeout", s.idleTimeout)
	case errors.Is(err, resp.ErrMalformed):
		h.log.Warn("malformed frame, closing connection", "error", err)
	default:
		h.log.Error("connection error", "error", err)
	}
}

// run — цикл обработки. Возвращает nil при остановке сервера.
func (h *handler) run(ctx context.Context) error {
	frames := make(chan readResult)
	go h.readLoop(frames)

	for {
		// nil-канал в select никогда не готов: вне подписки inbox не участвует.
		var inbox <-chan pubsub.Message
		if h.sub != nil {
			inbox = h.sub.Messages()
		}

		select {
		case <-ctx.Done():
			return nil

		case r := <-frames:
			if r.err != nil {
				if errors.Is(r.err, resp.ErrMalformed) {
					// Ответ best-effort: соединение всё равно закрывается.
					_ = h.rc.WriteFrame(resp.Error("ERR Protocol error: " + r.err.Error()))
				}
				return r.err
			}
			if err := h.dispatch(r.frame); err != nil {
				return err
			}

		case msg := <-inbox:
			if err := h.rc.WriteFrame(command.MessagePush(msg.Channel, msg.Payload)); err != nil {
				return err
			}
		}
	}
}

// readLoop читает фреймы, пока соединение не закроется.
func (h *handler) readLoop(out chan<- readResult) {
	for {
		h.armIdleDeadline()

		f, err := h.rc.ReadFrame()
		if err != nil && isTimeout(err) && h.subscribed.Load() {
			// Дедлайн взведён до входа в режим подписки.
			continue
		}

		select {
		case out <- readResult{frame: f, err: err}:
		case <-h.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// armIdleDeadline ставит дедлайн чтения: в режиме подписки его нет.
func (h *handler) armIdleDeadline() {
	if h.srv.idleTimeout <= 0 {
		return
	}
	var deadline time.Time
	if !h.subscribed.Load() {
		deadline = time.Now().Add(h.srv.idleTimeout)
	}
	h.conn.SetReadDeadline(deadline)
}

// dispatch выполняет одну команду и пишет ответ.
// Ошибка означает, что соединение надо закрыть.
func (h *handler) dispatch(f resp.Frame) error {
	cmd, err := command.FromFrame(f)
	if err != nil {
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) {
			return h.rc.WriteFrame(cmdErr.Frame())
		}
		return err
	}

	switch c := cmd.(type) {
	case *command.Subscribe:
		return h.subscribe(c.Channels)
	case *command.Unsubscribe:
		return h.unsubscribe(c.Channels)
	case command.Applier:
		if h.sub != nil {
			if _, ok := c.(*command.Ping); !ok {
				return h.rc.WriteFrame(command.NotAllowed(c.Name()).Frame())
			}
		}
		return h.rc.WriteFrame(c.Apply(h.srv.store))
	default:
		panic(fmt.Sprintf("server: unhandled command %T", cmd))
	}
}

// close освобождает подписку и закрывает сокет.
func (h *handler) close() {
	if h.sub != nil {
		h.sub.Close()
		h.sub = nil
	}
	h.conn.Close()
	close(h.done)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
