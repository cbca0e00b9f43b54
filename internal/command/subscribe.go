package command

import "minikv/internal/resp"

// Subscribe — SUBSCRIBE channel [channel ...].
type Subscribe struct {
	Channels []string
}

// Unsubscribe — UNSUBSCRIBE [channel ...]. Без каналов отписывает от всех.
type Unsubscribe struct {
	Channels []string
}

func parseSubscribe(c *cursor) (Command, error) {
	if c.remaining() == 0 {
		return nil, errArity(c.name)
	}
	channels, err := restStrings(c)
	if err != nil {
		return nil, err
	}
	return &Subscribe{Channels: channels}, nil
}

func parseUnsubscribe(c *cursor) (Command, error) {
	channels, err := restStrings(c)
	if err != nil {
		return nil, err
	}
	return &Unsubscribe{Channels: channels}, nil
}

func restStrings(c *cursor) ([]string, error) {
	out := make([]string, 0, c.remaining())
	for c.remaining() > 0 {
		s, err := c.nextString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s *Subscribe) Name() string { return "subscribe" }

func (s *Subscribe) Frame() resp.Frame {
	return resp.BulkArray(append([]string{"subscribe"}, s.Channels...)...)
}

func (u *Unsubscribe) Name() string { return "unsubscribe" }

func (u *Unsubscribe) Frame() resp.Frame {
	return resp.BulkArray(append([]string{"unsubscribe"}, u.Channels...)...)
}

// SubscribeReply — подтверждение подписки: [subscribe, channel, count].
func SubscribeReply(channel string, count int) resp.Frame {
	return resp.Array(resp.BulkString("subscribe"), resp.BulkString(channel), resp.Integer(int64(count)))
}

// UnsubscribeReply — подтверждение отписки: [unsubscribe, channel, count].
func UnsubscribeReply(channel string, count int) resp.Frame {
	return resp.Array(resp.BulkString("unsubscribe"), resp.BulkString(channel), resp.Integer(int64(count)))
}

// UnsubscribeNoneReply — ответ на UNSUBSCRIBE без аргументов
// у соединения без подписок: [unsubscribe, null, 0].
func UnsubscribeNoneReply() resp.Frame {
	return resp.Array(resp.BulkString("unsubscribe"), resp.Null(), resp.Integer(0))
}

// MessagePush — доставка сообщения подписчику: [message, channel, payload].
func MessagePush(channel string, payload []byte) resp.Frame {
	return resp.Array(resp.BulkString("message"), resp.BulkString(channel), resp.Bulk(payload))
}
