package utf7

import (
	"unicode/utf16"
	"unicode/utf8"
)

func encode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		ch := src[i]
		if ch >= min && ch <= max {
			out = append(out, ch)
			if ch == '&' {
				out = append(out, '-')
			}
			i++
			continue
		}

		// Collect the run of characters needing the base64 form
		start := i
		for i < len(src) && (src[i] < min || src[i] > max) {
			r, size := utf8.DecodeRune(src[i:])
			if r == utf8.RuneError && size <= 1 {
				return nil, ErrInvalid
			}
			i += size
		}
		out = append(out, '&')
		out = append(out, encodeBase64(string(src[start:i]))...)
		out = append(out, '-')
	}
	return out, nil
}

func encodeBase64(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2*len(units))
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	out := make([]byte, b64Enc.EncodedLen(len(b)))
	b64Enc.Encode(out, b)
	return out
}
