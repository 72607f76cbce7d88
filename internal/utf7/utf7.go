// Package utf7 implements the modified UTF-7 encoding defined in RFC 3501
// section 5.1.3, used for IMAP mailbox names.
package utf7

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	min = 0x20 // Minimum self-representing UTF-7 value
	max = 0x7E // Maximum self-representing UTF-7 value
)

var b64Enc = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,").WithPadding(base64.NoPadding)

// ErrInvalid is returned for input that is not valid modified UTF-7, or for
// invalid UTF-8 when encoding.
var ErrInvalid = errors.New("utf7: invalid input")

// Encoding is the modified UTF-7 encoding.
var Encoding encoding.Encoding = utf7Encoding{}

type utf7Encoding struct{}

func (utf7Encoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: wholeTransformer(decode)}
}

func (utf7Encoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: wholeTransformer(encode)}
}

// wholeTransformer adapts a function converting a complete input into a
// transform.Transformer. Mailbox names are short, so the input is buffered
// until atEOF.
type wholeTransformer func(src []byte) ([]byte, error)

func (f wholeTransformer) Reset() {}

func (f wholeTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if !atEOF {
		return 0, 0, transform.ErrShortSrc
	}
	out, err := f(src)
	if err != nil {
		return 0, 0, err
	}
	if len(out) > len(dst) {
		return 0, 0, transform.ErrShortDst
	}
	return copy(dst, out), len(src), nil
}
