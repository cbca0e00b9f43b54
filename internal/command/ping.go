package command

import "minikv/internal/resp"

// Ping — PING [message].
type Ping struct {
	// Msg == nil означает PING без аргумента.
	Msg []byte
}

func parsePing(c *cursor) (Command, error) {
	cmd := &Ping{}
	if c.remaining() > 0 {
		msg, err := c.nextBytes()
		if err != nil {
			return nil, err
		}
		cmd.Msg = msg
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *Ping) Name() string { return "ping" }

// Apply отвечает PONG или эхом аргумента.
func (p *Ping) Apply(Store) resp.Frame {
	if p.Msg == nil {
		return resp.Simple("PONG")
	}
	return resp.Bulk(p.Msg)
}

func (p *Ping) Frame() resp.Frame {
	if p.Msg == nil {
		return resp.BulkArray("ping")
	}
	return resp.Array(resp.BulkString("ping"), resp.Bulk(p.Msg))
}
