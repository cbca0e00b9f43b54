package command

import (
	"math"
	"strconv"
	"strings"
	"time"

	"minikv/internal/resp"
)

// Set — SET key value [EX seconds | PX milliseconds].
type Set struct {
	Key   string
	Value []byte
	// Expire == 0 — без TTL.
	Expire time.Duration
}

func parseSet(c *cursor) (Command, error) {
	key, err := c.nextString()
	if err != nil {
		return nil, err
	}
	value, err := c.nextBytes()
	if err != nil {
		return nil, err
	}
	cmd := &Set{Key: key, Value: value}

	if c.remaining() == 0 {
		return cmd, nil
	}

	opt, err := c.nextString()
	if err != nil {
		return nil, err
	}
	var unit time.Duration
	switch strings.ToUpper(opt) {
	case "EX":
		unit = time.Second
	case "PX":
		unit = time.Millisecond
	default:
		return nil, errSyntax
	}

	if c.remaining() != 1 {
		return nil, errSyntax
	}
	raw, err := c.nextString()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt64/int64(unit) {
		return nil, errInvalidExpire
	}
	cmd.Expire = time.Duration(n) * unit
	return cmd, nil
}

func (s *Set) Name() string { return "set" }

// Apply записывает значение и отвечает OK.
func (s *Set) Apply(st Store) resp.Frame {
	st.Set(s.Key, s.Value, s.Expire)
	return resp.Simple("OK")
}

// Frame кодирует TTL как PX, округляя вверх до миллисекунды.
func (s *Set) Frame() resp.Frame {
	items := []resp.Frame{resp.BulkString("set"), resp.BulkString(s.Key), resp.Bulk(s.Value)}
	if s.Expire > 0 {
		ms := (s.Expire + time.Millisecond - 1) / time.Millisecond
		items = append(items, resp.BulkString("px"), resp.BulkString(strconv.FormatInt(int64(ms), 10)))
	}
	return resp.Array(items...)
}
