package command

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"minikv/internal/resp"
)

// FromFrame разбирает запрос: массив строк, первая из которых — имя команды.
// Неизвестное имя даёт *Unknown без ошибки, прочие проблемы дают *Error.
func FromFrame(f resp.Frame) (Command, error) {
	if f.Kind != resp.KindArray || len(f.Array) == 0 {
		return nil, errorf("ERR Protocol error: expected non-empty array of bulk strings, got %s", f.Kind)
	}

	raw, err := argBytes(f.Array[0])
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, errorf("ERR Protocol error: command name is not valid UTF-8")
	}
	name := strings.ToLower(string(raw))

	parse, ok := parsers[name]
	if !ok {
		return &Unknown{name: name}, nil
	}
	return parse(&cursor{name: name, args: f.Array[1:]})
}

// cursor последовательно выдаёт аргументы команды.
type cursor struct {
	name string
	args []resp.Frame
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.args) - c.pos
}

func (c *cursor) nextBytes() ([]byte, error) {
	if c.pos >= len(c.args) {
		return nil, errArity(c.name)
	}
	b, err := argBytes(c.args[c.pos])
	if err != nil {
		return nil, err
	}
	c.pos++
	return b, nil
}

func (c *cursor) nextString() (string, error) {
	b, err := c.nextBytes()
	return string(b), err
}

// finish проверяет, что лишних аргументов нет.
func (c *cursor) finish() error {
	if c.pos != len(c.args) {
		return errArity(c.name)
	}
	return nil
}

// argBytes принимает bulk, simple и integer аргументы.
func argBytes(f resp.Frame) ([]byte, error) {
	switch f.Kind {
	case resp.KindBulk:
		return f.Bulk, nil
	case resp.KindSimple:
		return []byte(f.Str), nil
	case resp.KindInteger:
		return strconv.AppendInt(nil, f.Int, 10), nil
	default:
		return nil, errorf("ERR Protocol error: expected bulk string argument, got %s", f.Kind)
	}
}
