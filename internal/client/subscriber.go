package client

import (
	"context"
	"errors"
	"slices"

	"minikv/internal/resp"
)

// Message — сообщение, полученное по подписке.
type Message struct {
	Channel string
	Content []byte
}

// Subscriber — соединение в режиме подписки.
type Subscriber struct {
	client   *Client
	channels []string
	// pending — сообщения, пришедшие, пока ждали подтверждений.
	pending []Message
}

// Channels возвращает каналы, на которые подписано соединение.
func (s *Subscriber) Channels() []string {
	return slices.Clone(s.channels)
}

// NextMessage ждёт следующее сообщение.
// io.EOF — сервер закрыл соединение.
func (s *Subscriber) NextMessage(ctx context.Context) (Message, error) {
	if len(s.pending) > 0 {
		msg := s.pending[0]
		s.pending = s.pending[1:]
		return msg, nil
	}

	var msg Message
	err := s.client.withContext(ctx, func() error {
		f, err := s.client.rc.ReadFrame()
		if err != nil {
			return err
		}
		m, ok := asMessage(f)
		if !ok {
			return unexpected(f)
		}
		msg = m
		return nil
	})
	return msg, err
}

// Subscribe добавляет каналы и ждёт подтверждения каждого.
func (s *Subscriber) Subscribe(ctx context.Context, channels ...string) error {
	return s.client.withContext(ctx, func() error {
		if err := s.client.rc.WriteFrame(resp.BulkArray(append([]string{"subscribe"}, channels...)...)); err != nil {
			return err
		}
		for _, ch := range channels {
			if err := s.confirm("subscribe", ch); err != nil {
				return err
			}
			if !slices.Contains(s.channels, ch) {
				s.channels = append(s.channels, ch)
			}
		}
		return nil
	})
}

// Unsubscribe отписывает от каналов; без аргументов отписывает от всех.
func (s *Subscriber) Unsubscribe(ctx context.Context, channels ...string) error {
	return s.client.withContext(ctx, func() error {
		if err := s.client.rc.WriteFrame(resp.BulkArray(append([]string{"unsubscribe"}, channels...)...)); err != nil {
			return err
		}

		expect := channels
		if len(expect) == 0 {
			expect = slices.Clone(s.channels)
		}
		if len(expect) == 0 {
			// Сервер отвечает одним фреймом и с пустым именем канала.
			return s.confirm("unsubscribe", "")
		}

		for range expect {
			ch, err := s.confirmAny("unsubscribe")
			if err != nil {
				return err
			}
			if !slices.Contains(expect, ch) {
				return errors.New("client: unsubscribe confirmed for unexpected channel " + ch)
			}
			s.channels = slices.DeleteFunc(s.channels, func(c string) bool { return c == ch })
		}
		return nil
	})
}

// Close закрывает соединение.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

// confirm читает подтверждение kind для канала ch.
func (s *Subscriber) confirm(kind, ch string) error {
	got, err := s.confirmAny(kind)
	if err != nil {
		return err
	}
	if got != ch {
		return errors.New("client: " + kind + " confirmed for " + got + ", want " + ch)
	}
	return nil
}

// confirmAny читает следующее подтверждение kind, откладывая
// пришедшие раньше сообщения, и возвращает имя канала.
func (s *Subscriber) confirmAny(kind string) (string, error) {
	for {
		f, err := s.client.readFrame()
		if err != nil {
			return "", err
		}
		if f.Kind == resp.KindError {
			return "", ServerError(f.Str)
		}
		if msg, ok := asMessage(f); ok {
			s.pending = append(s.pending, msg)
			continue
		}
		if f.Kind != resp.KindArray || len(f.Array) != 3 {
			return "", unexpected(f)
		}
		if name, ok := f.Array[0].Text(); !ok || name != kind {
			return "", unexpected(f)
		}
		if f.Array[1].IsNull() {
			return "", nil
		}
		ch, ok := f.Array[1].Text()
		if !ok {
			return "", unexpected(f)
		}
		return ch, nil
	}
}

func asMessage(f resp.Frame) (Message, bool) {
	if f.Kind != resp.KindArray || len(f.Array) != 3 {
		return Message{}, false
	}
	if kind, ok := f.Array[0].Text(); !ok || kind != "message" {
		return Message{}, false
	}
	ch, ok := f.Array[1].Text()
	if !ok || f.Array[2].Kind != resp.KindBulk {
		return Message{}, false
	}
	return Message{Channel: ch, Content: f.Array[2].Bulk}, true
}
