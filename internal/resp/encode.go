package resp

import "strconv"

// Encode сериализует фрейм в новый буфер.
func Encode(f Frame) []byte {
	return AppendFrame(nil, f)
}

// AppendFrame дописывает сериализованный фрейм в dst.
func AppendFrame(dst []byte, f Frame) []byte {
	switch f.Kind {
	case KindSimple:
		dst = append(dst, respSimpleString)
		dst = append(dst, f.Str...)
		return append(dst, '\r', '\n')
	case KindError:
		dst = append(dst, respError)
		dst = append(dst, f.Str...)
		return append(dst, '\r', '\n')
	case KindInteger:
		dst = append(dst, respInteger)
		dst = strconv.AppendInt(dst, f.Int, 10)
		return append(dst, '\r', '\n')
	case KindBulk:
		dst = append(dst, respBulkString)
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.Bulk...)
		return append(dst, '\r', '\n')
	case KindNull:
		return append(dst, "$-1\r\n"...)
	case KindArray:
		dst = append(dst, respArray)
		dst = strconv.AppendInt(dst, int64(len(f.Array)), 10)
		dst = append(dst, '\r', '\n')
		for _, item := range f.Array {
			dst = AppendFrame(dst, item)
		}
		return dst
	default:
		panic("resp: encode of frame with invalid kind " + f.Kind.String())
	}
}
