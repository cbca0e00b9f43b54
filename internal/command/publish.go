package command

import "minikv/internal/resp"

// Publish — PUBLISH channel message.
type Publish struct {
	Channel string
	Message []byte
}

func parsePublish(c *cursor) (Command, error) {
	channel, err := c.nextString()
	if err != nil {
		return nil, err
	}
	msg, err := c.nextBytes()
	if err != nil {
		return nil, err
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &Publish{Channel: channel, Message: msg}, nil
}

func (p *Publish) Name() string { return "publish" }

// Apply отвечает числом подписчиков, получивших сообщение.
func (p *Publish) Apply(s Store) resp.Frame {
	return resp.Integer(int64(s.Publish(p.Channel, p.Message)))
}

func (p *Publish) Frame() resp.Frame {
	return resp.Array(resp.BulkString("publish"), resp.BulkString(p.Channel), resp.Bulk(p.Message))
}
