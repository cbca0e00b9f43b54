package command

import "minikv/internal/resp"

// Get — GET key.
type Get struct {
	Key string
}

func parseGet(c *cursor) (Command, error) {
	key, err := c.nextString()
	if err != nil {
		return nil, err
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &Get{Key: key}, nil
}

func (g *Get) Name() string { return "get" }

// Apply возвращает значение или Null, если ключа нет.
func (g *Get) Apply(s Store) resp.Frame {
	value, found := s.Get(g.Key)
	if !found {
		return resp.Null()
	}
	return resp.Bulk(value)
}

func (g *Get) Frame() resp.Frame {
	return resp.BulkArray("get", g.Key)
}
