package resp

import (
	"bufio"
	"errors"
	"io"
)

const (
	initialBufSize = 4 * 1024
	writeBufSize   = 64 * 1024
	// После крупного фрейма буфер больше этого размера отпускается.
	retainBufSize = 1024 * 1024
)

// Conn — буферизованное соединение, которое читает и пишет фреймы.
// Не потокобезопасно: у чтения и у записи должно быть по одному владельцу.
type Conn struct {
	rd  io.Reader
	wr  *bufio.Writer
	lim Limits

	// buf[start:end] — прочитанные, но ещё не разобранные байты.
	buf        []byte
	start, end int

	scratch []byte
}

// NewConn оборачивает поток. Нулевые Limits означают DefaultLimits.
func NewConn(rw io.ReadWriter, lim Limits) *Conn {
	return &Conn{
		rd:  rw,
		wr:  bufio.NewWriterSize(rw, writeBufSize),
		lim: lim.withDefaults(),
		buf: make([]byte, initialBufSize),
	}
}

// ReadFrame читает следующий фрейм.
// io.EOF — поток закрыт на границе фрейма.
// Ошибка с ErrMalformed — битые данные или обрыв посреди фрейма.
func (c *Conn) ReadFrame() (Frame, error) {
	for {
		if c.end > c.start {
			f, n, err := Parse(c.buf[c.start:c.end], c.lim)
			if err == nil {
				c.advance(n)
				return f, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				return Frame{}, err
			}
		}

		if err := c.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if c.end > c.start {
					return Frame{}, malformed("truncated frame: stream closed with %d pending bytes", c.end-c.start)
				}
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}
	}
}

// Buffered возвращает число прочитанных, но не разобранных байт.
func (c *Conn) Buffered() int {
	return c.end - c.start
}

func (c *Conn) advance(n int) {
	c.start += n
	if c.start < c.end {
		return
	}
	c.start, c.end = 0, 0
	if len(c.buf) > retainBufSize {
		c.buf = make([]byte, initialBufSize)
	}
}

// fill выполняет одно чтение из потока, при необходимости уплотняя
// или увеличивая буфер.
func (c *Conn) fill() error {
	if c.end == len(c.buf) {
		if c.start > 0 {
			n := copy(c.buf, c.buf[c.start:c.end])
			c.start, c.end = 0, n
		}
		if c.end == len(c.buf) {
			grown := make([]byte, 2*len(c.buf))
			copy(grown, c.buf[:c.end])
			c.buf = grown
		}
	}

	n, err := c.rd.Read(c.buf[c.end:])
	c.end += n
	if n > 0 {
		return nil
	}
	return err
}

// WriteFrame сериализует фрейм и сразу сбрасывает его в поток.
func (c *Conn) WriteFrame(f Frame) error {
	c.scratch = AppendFrame(c.scratch[:0], f)
	_, err := c.wr.Write(c.scratch)
	if cap(c.scratch) > retainBufSize {
		c.scratch = nil
	}
	if err != nil {
		return err
	}
	return c.wr.Flush()
}
