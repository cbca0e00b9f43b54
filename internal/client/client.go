// Package client — Go-клиент minikv.
//
// Client не потокобезопасен; для общего доступа из многих горутин
// есть Buffered.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"minikv/internal/command"
	"minikv/internal/resp"
)

var (
	// ErrConnectionReset — сервер закрыл соединение, не ответив.
	ErrConnectionReset = errors.New("client: connection reset by server")

	// ErrClosed — клиент уже закрыт.
	ErrClosed = errors.New("client: closed")
)

// ServerError — Error-фрейм, которым ответил сервер.
type ServerError string

func (e ServerError) Error() string { return string(e) }

// Client — одно соединение с сервером.
type Client struct {
	conn net.Conn
	rc   *resp.Conn
}

// Dial подключается к серверу по адресу addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rc: resp.NewConn(conn, resp.Limits{})}, nil
}

// Close закрывает соединение.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping отправляет PING. Без msg сервер отвечает "PONG".
func (c *Client) Ping(ctx context.Context, msg []byte) ([]byte, error) {
	f, err := c.Do(ctx, &command.Ping{Msg: msg})
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case resp.KindSimple:
		return []byte(f.Str), nil
	case resp.KindBulk:
		return f.Bulk, nil
	default:
		return nil, unexpected(f)
	}
}

// Get возвращает значение ключа; found = false, если ключа нет.
func (c *Client) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	f, err := c.Do(ctx, &command.Get{Key: key})
	if err != nil {
		return nil, false, err
	}
	return getReply(f)
}

// Set записывает значение без TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	return c.SetExpires(ctx, key, value, 0)
}

// SetExpires записывает значение, которое истечёт через ttl.
func (c *Client) SetExpires(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f, err := c.Do(ctx, &command.Set{Key: key, Value: value, Expire: ttl})
	if err != nil {
		return err
	}
	return okReply(f)
}

// Publish публикует сообщение и возвращает число получивших его подписчиков.
func (c *Client) Publish(ctx context.Context, channel string, msg []byte) (int64, error) {
	f, err := c.Do(ctx, &command.Publish{Channel: channel, Message: msg})
	if err != nil {
		return 0, err
	}
	if f.Kind != resp.KindInteger {
		return 0, unexpected(f)
	}
	return f.Int, nil
}

// Subscribe переводит соединение в режим подписки.
// Дальше Client использовать нельзя: соединением владеет Subscriber.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*Subscriber, error) {
	if len(channels) == 0 {
		return nil, errors.New("client: subscribe needs at least one channel")
	}
	s := &Subscriber{client: c}
	if err := s.Subscribe(ctx, channels...); err != nil {
		return nil, err
	}
	return s, nil
}

// Do отправляет команду и читает один ответ.
// Error-фрейм превращается в ServerError. Если ctx отменён посреди
// запроса, ответ может остаться в сокете: такое соединение лучше закрыть.
func (c *Client) Do(ctx context.Context, cmd command.Command) (resp.Frame, error) {
	var f resp.Frame
	err := c.withContext(ctx, func() error {
		if err := c.rc.WriteFrame(cmd.Frame()); err != nil {
			return err
		}
		var err error
		f, err = c.readFrame()
		return err
	})
	if err != nil {
		return resp.Frame{}, err
	}
	if f.Kind == resp.KindError {
		return resp.Frame{}, ServerError(f.Str)
	}
	return f, nil
}

func (c *Client) readFrame() (resp.Frame, error) {
	f, err := c.rc.ReadFrame()
	if errors.Is(err, io.EOF) {
		return resp.Frame{}, ErrConnectionReset
	}
	return f, err
}

// withContext выполняет fn, прерывая ввод-вывод по отмене ctx.
func (c *Client) withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
		close(fired)
	})

	err := fn()
	if !stop() {
		<-fired
	}
	c.conn.SetDeadline(time.Time{})

	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func getReply(f resp.Frame) ([]byte, bool, error) {
	switch f.Kind {
	case resp.KindBulk:
		return f.Bulk, true, nil
	case resp.KindNull:
		return nil, false, nil
	default:
		return nil, false, unexpected(f)
	}
}

func okReply(f resp.Frame) error {
	if f.Kind != resp.KindSimple || f.Str != "OK" {
		return unexpected(f)
	}
	return nil
}

func unexpected(f resp.Frame) error {
	return fmt.Errorf("client: unexpected response %s", f)
}
