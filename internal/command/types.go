// Package command разбирает запросы клиента в команды
// и применяет их к хранилищу.
package command

import (
	"fmt"
	"time"

	"minikv/internal/resp"
)

// Store — часть хранилища, нужная командам.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Publish(channel string, payload []byte) int
}

// Command — разобранный запрос.
type Command interface {
	// Name — имя команды в нижнем регистре.
	Name() string
	// Frame кодирует команду как запрос клиента.
	Frame() resp.Frame
}

// Applier — команда с одним ответом, выполняемая прямо над Store.
// SUBSCRIBE и UNSUBSCRIBE его не реализуют: они меняют режим соединения.
type Applier interface {
	Command
	Apply(s Store) resp.Frame
}

// Error — ошибка протокола. Отправляется клиенту, соединение остаётся открытым.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// Frame возвращает ошибку как Error-фрейм.
func (e *Error) Frame() resp.Frame { return resp.Error(e.msg) }

func errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func errArity(name string) *Error {
	return errorf("ERR wrong number of arguments for '%s' command", name)
}

// NotAllowed — ответ на команду, недопустимую в режиме подписки.
func NotAllowed(name string) *Error {
	return errorf("ERR Can't execute '%s': only SUBSCRIBE / UNSUBSCRIBE / PING are allowed in this context", name)
}

var (
	errSyntax        = errorf("ERR syntax error")
	errInvalidExpire = errorf("ERR invalid expire time in 'set' command")
)

// parseFunc разбирает аргументы одной команды.
type parseFunc func(c *cursor) (Command, error)

// parsers — реестр команд.
var parsers = map[string]parseFunc{
	"ping":        parsePing,
	"get":         parseGet,
	"set":         parseSet,
	"publish":     parsePublish,
	"subscribe":   parseSubscribe,
	"unsubscribe": parseUnsubscribe,
}
