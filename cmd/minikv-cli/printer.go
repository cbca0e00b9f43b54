package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// printer форматирует ответы сервера для терминала.
type printer struct {
	out io.Writer

	okColor    *color.Color
	valueColor *color.Color
	nilColor   *color.Color
	errColor   *color.Color
	chanColor  *color.Color
}

// newPrinter включает цвет, если force или out — терминал.
func newPrinter(out io.Writer, force bool) *printer {
	enabled := force
	if f, ok := out.(*os.File); ok && !enabled {
		enabled = isatty.IsTerminal(f.Fd())
	}

	p := &printer{
		out:        out,
		okColor:    color.New(color.FgGreen),
		valueColor: color.New(color.FgCyan),
		nilColor:   color.New(color.FgHiBlack),
		errColor:   color.New(color.FgRed, color.Bold),
		chanColor:  color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.okColor, p.valueColor, p.nilColor, p.errColor, p.chanColor} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) ok() {
	fmt.Fprintln(p.out, p.okColor.Sprint("OK"))
}

func (p *printer) value(b []byte) {
	fmt.Fprintln(p.out, p.valueColor.Sprint(quote(b)))
}

func (p *printer) null() {
	fmt.Fprintln(p.out, p.nilColor.Sprint("(nil)"))
}

func (p *printer) integer(n int64) {
	fmt.Fprintln(p.out, p.valueColor.Sprint("(integer) "+strconv.FormatInt(n, 10)))
}

func (p *printer) subscribed(channels []string) {
	fmt.Fprintln(p.out, p.okColor.Sprint("subscribed to "+strings.Join(channels, ", ")))
}

func (p *printer) message(channel string, content []byte) {
	fmt.Fprintf(p.out, "%s %s\n", p.chanColor.Sprint(channel+":"), p.valueColor.Sprint(quote(content)))
}

// failure печатает ошибку и возвращает её же для кода выхода.
func (p *printer) failure(err error) error {
	fmt.Fprintln(p.out, p.errColor.Sprint("(error) "+err.Error()))
	return err
}

// quote показывает UTF-8 как есть в кавычках, прочие байты экранирует.
func quote(b []byte) string {
	if utf8.Valid(b) {
		return `"` + string(b) + `"`
	}
	return strconv.Quote(string(b))
}
