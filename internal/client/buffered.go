package client

import (
	"context"
	"sync"
	"time"

	"minikv/internal/command"
	"minikv/internal/resp"
)

// requestBacklog — сколько запросов может ждать своей очереди.
const requestBacklog = 32

type request struct {
	ctx   context.Context
	cmd   command.Command
	reply chan result
}

type result struct {
	frame resp.Frame
	err   error
}

// Buffered раздаёт одно соединение многим горутинам:
// запросы встают в очередь и выполняются по одному.
type Buffered struct {
	client *Client
	reqs   chan request
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewBuffered забирает client во владение и запускает обработчик очереди.
func NewBuffered(client *Client) *Buffered {
	b := &Buffered{
		client: client,
		reqs:   make(chan request, requestBacklog),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Buffered) run() {
	defer close(b.done)
	for {
		select {
		case req := <-b.reqs:
			if err := req.ctx.Err(); err != nil {
				req.reply <- result{err: err}
				continue
			}
			// Отправленный запрос дочитывается до конца, даже если
			// вызывающий ушёл: иначе его ответ достанется следующему.
			f, err := b.client.Do(context.WithoutCancel(req.ctx), req.cmd)
			req.reply <- result{frame: f, err: err}
		case <-b.quit:
			return
		}
	}
}

// Get — как Client.Get.
func (b *Buffered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f, err := b.do(ctx, &command.Get{Key: key})
	if err != nil {
		return nil, false, err
	}
	return getReply(f)
}

// Set — как Client.Set.
func (b *Buffered) Set(ctx context.Context, key string, value []byte) error {
	return b.SetExpires(ctx, key, value, 0)
}

// SetExpires — как Client.SetExpires.
func (b *Buffered) SetExpires(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f, err := b.do(ctx, &command.Set{Key: key, Value: value, Expire: ttl})
	if err != nil {
		return err
	}
	return okReply(f)
}

// Publish — как Client.Publish.
func (b *Buffered) Publish(ctx context.Context, channel string, msg []byte) (int64, error) {
	f, err := b.do(ctx, &command.Publish{Channel: channel, Message: msg})
	if err != nil {
		return 0, err
	}
	if f.Kind != resp.KindInteger {
		return 0, unexpected(f)
	}
	return f.Int, nil
}

func (b *Buffered) do(ctx context.Context, cmd command.Command) (resp.Frame, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan result, 1)}

	select {
	case b.reqs <- req:
	case <-b.quit:
		return resp.Frame{}, ErrClosed
	case <-ctx.Done():
		return resp.Frame{}, ctx.Err()
	}

	// reply буферизован: run не заблокируется, если мы уже ушли.
	select {
	case r := <-req.reply:
		return r.frame, r.err
	case <-ctx.Done():
		return resp.Frame{}, ctx.Err()
	case <-b.done:
		select {
		case r := <-req.reply:
			return r.frame, r.err
		default:
			return resp.Frame{}, ErrClosed
		}
	}
}

// Close останавливает очередь и закрывает соединение.
// Запросы, ещё не взятые в работу, получают ErrClosed.
func (b *Buffered) Close() error {
	b.closeOnce.Do(func() {
		close(b.quit)
		// Закрытие соединения прерывает запрос, который run ещё ждёт.
		b.closeErr = b.client.Close()
		<-b.done
	})
	return b.closeErr
}
