// Package resp реализует кодек RESP2: разбор потока байт на фреймы
// и сериализацию фреймов обратно.
package resp

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// RESP types
const (
	respSimpleString = '+'
	respError        = '-'
	respInteger      = ':'
	respBulkString   = '$'
	respArray        = '*'
)

// Kind — тип фрейма.
type Kind uint8

const (
	KindSimple Kind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindNull
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Frame — один самоописываемый элемент протокола.
// Заполнено только поле, соответствующее Kind:
// Str для Simple/Error, Int для Integer, Bulk для Bulk, Array для Array.
type Frame struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Array []Frame
}

// Simple возвращает +text. Текст не должен содержать CR/LF.
func Simple(text string) Frame {
	return Frame{Kind: KindSimple, Str: text}
}

// Error возвращает -text.
func Error(text string) Frame {
	return Frame{Kind: KindError, Str: text}
}

// Integer возвращает :n.
func Integer(n int64) Frame {
	return Frame{Kind: KindInteger, Int: n}
}

// Bulk возвращает $len\r\ndata. nil превращается в пустую строку, не в Null.
func Bulk(b []byte) Frame {
	if b == nil {
		b = []byte{}
	}
	return Frame{Kind: KindBulk, Bulk: b}
}

// BulkString — Bulk из строки.
func BulkString(s string) Frame {
	return Bulk([]byte(s))
}

// Null возвращает $-1.
func Null() Frame {
	return Frame{Kind: KindNull}
}

// Array собирает массив фреймов.
func Array(items ...Frame) Frame {
	if items == nil {
		items = []Frame{}
	}
	return Frame{Kind: KindArray, Array: items}
}

// BulkArray собирает массив bulk-строк (так клиент отправляет команды).
func BulkArray(parts ...string) Frame {
	items := make([]Frame, len(parts))
	for i, p := range parts {
		items[i] = BulkString(p)
	}
	return Array(items...)
}

// IsNull сообщает, является ли фрейм Null.
func (f Frame) IsNull() bool {
	return f.Kind == KindNull
}

// Text возвращает строковое содержимое Simple/Bulk фрейма.
func (f Frame) Text() (string, bool) {
	switch f.Kind {
	case KindSimple:
		return f.Str, true
	case KindBulk:
		return string(f.Bulk), true
	default:
		return "", false
	}
}

// String — человекочитаемое представление для CLI и логов.
func (f Frame) String() string {
	switch f.Kind {
	case KindSimple:
		return f.Str
	case KindError:
		return "error: " + f.Str
	case KindInteger:
		return strconv.FormatInt(f.Int, 10)
	case KindBulk:
		if utf8.Valid(f.Bulk) {
			return string(f.Bulk)
		}
		return strconv.Quote(string(f.Bulk))
	case KindNull:
		return "(nil)"
	case KindArray:
		parts := make([]string, len(f.Array))
		for i, item := range f.Array {
			parts[i] = item.String()
		}
		return strings.Join(parts, " ")
	default:
		return "<invalid frame>"
	}
}
