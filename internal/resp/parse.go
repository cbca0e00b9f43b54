package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

var (
	// ErrIncomplete — в буфере ещё нет целого фрейма, нужно дочитать.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrMalformed — поток нарушает протокол. Соединение после этого не восстановить.
	ErrMalformed = errors.New("resp: malformed frame")
)

// maxLineLen ограничивает строку без CRLF (заголовки, simple, error).
const maxLineLen = 64 * 1024

// Limits — ограничения на размер входящих фреймов.
// Нулевое поле означает значение из DefaultLimits.
type Limits struct {
	MaxBulkLen  int
	MaxArrayLen int
	MaxDepth    int
}

// DefaultLimits совпадают с умолчаниями Redis для bulk (512MB).
var DefaultLimits = Limits{
	MaxBulkLen:  512 * 1024 * 1024,
	MaxArrayLen: 1024 * 1024,
	MaxDepth:    32,
}

func (l Limits) withDefaults() Limits {
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = DefaultLimits.MaxBulkLen
	}
	if l.MaxArrayLen <= 0 {
		l.MaxArrayLen = DefaultLimits.MaxArrayLen
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLimits.MaxDepth
	}
	return l
}

// Parse разбирает один фрейм из начала buf.
// Возвращает фрейм и число потреблённых байт, либо ErrIncomplete,
// либо ошибку, оборачивающую ErrMalformed.
// Bulk-данные копируются: buf можно переиспользовать.
func Parse(buf []byte, lim Limits) (Frame, int, error) {
	p := parser{buf: buf, lim: lim.withDefaults()}
	f, err := p.frame(0)
	if err != nil {
		return Frame{}, 0, err
	}
	return f, p.pos, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

type parser struct {
	buf []byte
	pos int
	lim Limits
}

func (p *parser) frame(depth int) (Frame, error) {
	if p.pos >= len(p.buf) {
		return Frame{}, ErrIncomplete
	}
	tag := p.buf[p.pos]
	p.pos++

	switch tag {
	case respSimpleString, respError:
		line, err := p.line()
		if err != nil {
			return Frame{}, err
		}
		if !utf8.Valid(line) {
			return Frame{}, malformed("invalid utf-8 in %q line", tag)
		}
		if tag == respError {
			return Error(string(line)), nil
		}
		return Simple(string(line)), nil

	case respInteger:
		n, err := p.decimal()
		if err != nil {
			return Frame{}, err
		}
		return Integer(n), nil

	case respBulkString:
		n, err := p.decimal()
		if err != nil {
			return Frame{}, err
		}
		if n == -1 {
			return Null(), nil
		}
		if n < 0 {
			return Frame{}, malformed("invalid bulk length %d", n)
		}
		if n > int64(p.lim.MaxBulkLen) {
			return Frame{}, malformed("bulk length %d exceeds limit %d", n, p.lim.MaxBulkLen)
		}
		size := int(n)
		if len(p.buf)-p.pos < size+2 {
			return Frame{}, ErrIncomplete
		}
		end := p.pos + size
		if p.buf[end] != '\r' || p.buf[end+1] != '\n' {
			return Frame{}, malformed("bulk payload not terminated by CRLF")
		}
		data := make([]byte, size)
		copy(data, p.buf[p.pos:end])
		p.pos = end + 2
		return Bulk(data), nil

	case respArray:
		n, err := p.decimal()
		if err != nil {
			return Frame{}, err
		}
		if n == -1 {
			return Null(), nil
		}
		if n < 0 {
			return Frame{}, malformed("invalid array length %d", n)
		}
		if n > int64(p.lim.MaxArrayLen) {
			return Frame{}, malformed("array length %d exceeds limit %d", n, p.lim.MaxArrayLen)
		}
		if depth+1 > p.lim.MaxDepth {
			return Frame{}, malformed("array nesting exceeds depth %d", p.lim.MaxDepth)
		}
		// Заголовок может врать про длину, поэтому не аллоцируем всё сразу.
		items := make([]Frame, 0, min(int(n), 1024))
		for i := int64(0); i < n; i++ {
			item, err := p.frame(depth + 1)
			if err != nil {
				return Frame{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil

	default:
		return Frame{}, malformed("invalid frame type byte %q", tag)
	}
}

// line возвращает строку до CRLF без терминатора и сдвигает позицию за него.
func (p *parser) line() ([]byte, error) {
	rest := p.buf[p.pos:]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		if len(rest) > maxLineLen {
			return nil, malformed("line exceeds %d bytes", maxLineLen)
		}
		return nil, ErrIncomplete
	}
	if idx == 0 || rest[idx-1] != '\r' {
		return nil, malformed("line not terminated by CRLF")
	}
	p.pos += idx + 1
	return rest[:idx-1], nil
}

func (p *parser) decimal() (int64, error) {
	line, err := p.line()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, malformed("invalid number %q", line)
	}
	return n, nil
}
