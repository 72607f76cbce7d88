package utf7

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"
)

func decode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	// Two adjacent base64 sections are not allowed
	var afterShift bool
	for i := 0; i < len(src); {
		ch := src[i]
		if ch < min || ch > max {
			return nil, ErrInvalid
		}
		if ch != '&' {
			out = append(out, ch)
			afterShift = false
			i++
			continue
		}

		end := bytes.IndexByte(src[i+1:], '-')
		if end < 0 {
			return nil, ErrInvalid
		}
		end += i + 1
		if end == i+1 {
			// "&-" encodes '&'
			out = append(out, '&')
			afterShift = false
			i = end + 1
			continue
		}
		if afterShift {
			return nil, ErrInvalid
		}

		runes, err := decodeBase64(src[i+1 : end])
		if err != nil {
			return nil, err
		}
		for _, r := range runes {
			out = utf8.AppendRune(out, r)
		}
		afterShift = true
		i = end + 1
	}
	return out, nil
}

func decodeBase64(b []byte) ([]rune, error) {
	// encoding/base64 skips CR and LF, which are invalid here
	for _, ch := range b {
		if !isBase64Char(ch) {
			return nil, ErrInvalid
		}
	}

	raw := make([]byte, b64Enc.DecodedLen(len(b)))
	n, err := b64Enc.Strict().Decode(raw, b)
	if err != nil || n%2 != 0 {
		return nil, ErrInvalid
	}
	raw = raw[:n]

	units := make([]uint16, 0, n/2)
	for i := 0; i < n; i += 2 {
		units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
	}

	var runes []rune
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case utf16.IsSurrogate(u):
			if i+1 >= len(units) {
				return nil, ErrInvalid
			}
			r := utf16.DecodeRune(u, rune(units[i+1]))
			if r == utf8.RuneError {
				return nil, ErrInvalid
			}
			runes = append(runes, r)
			i++
		case u >= min && u <= max:
			// Printable ASCII must not be base64-encoded
			return nil, ErrInvalid
		default:
			runes = append(runes, u)
		}
	}
	return runes, nil
}

func isBase64Char(ch byte) bool {
	switch {
	case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		return true
	case ch == '+', ch == ',':
		return true
	}
	return false
}
