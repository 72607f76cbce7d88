package imapwire

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/internal/utf7"
)

// ErrUnquotable is returned when a string cannot be sent as a quoted string.
// Literals are not supported.
var ErrUnquotable = errors.New("imapwire: string cannot be quoted")

// An Encoder writes IMAP data.
//
// Most methods don't return an error, instead they defer error handling until
// CRLF is called. These methods return the Encoder so that calls can be
// chained.
type Encoder struct {
	w   *bufio.Writer
	err error
}

// NewEncoder creates a new encoder.
func NewEncoder(w *bufio.Writer) *Encoder {
	return &Encoder{w: w}
}

func (enc *Encoder) setErr(err error) {
	if enc.err == nil {
		enc.err = err
	}
}

func (enc *Encoder) writeString(s string) *Encoder {
	if enc.err != nil {
		return enc
	}
	if _, err := enc.w.WriteString(s); err != nil {
		enc.err = err
	}
	return enc
}

// CRLF writes a "\r\n" sequence and flushes the buffered writer.
//
// If an earlier method failed, nothing is flushed. The caller must reset the
// buffered writer before reusing it.
func (enc *Encoder) CRLF() error {
	enc.writeString("\r\n")
	if enc.err != nil {
		return enc.err
	}
	return enc.w.Flush()
}

func (enc *Encoder) Atom(s string) *Encoder {
	return enc.writeString(s)
}

func (enc *Encoder) SP() *Encoder {
	return enc.writeString(" ")
}

func (enc *Encoder) Special(ch byte) *Encoder {
	return enc.writeString(string(ch))
}

// Raw writes b verbatim. The caller is responsible for its syntax.
func (enc *Encoder) Raw(b []byte) *Encoder {
	return enc.writeString(string(b))
}

// Text writes free-form text, as found after a response state.
func (enc *Encoder) Text(s string) *Encoder {
	return enc.writeString(s)
}

func (enc *Encoder) Number(v uint32) *Encoder {
	return enc.writeString(strconv.FormatUint(uint64(v), 10))
}

// Quoted writes s as a quoted string. Backslashes are escaped first, then
// double quotes.
func (enc *Encoder) Quoted(s string) *Encoder {
	if !ValidQuoted(s) {
		enc.setErr(ErrUnquotable)
		return enc
	}
	var sb strings.Builder
	sb.Grow(2 + len(s))
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' || ch == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte('"')
	return enc.writeString(sb.String())
}

// ValidQuoted reports whether s can be represented as a quoted string.
func ValidQuoted(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 0, '\r', '\n':
			return false
		}
	}
	return true
}

// Mailbox writes a mailbox name. INBOX is case-insensitive and sent as an
// atom, other names are converted to modified UTF-7 and quoted.
func (enc *Encoder) Mailbox(name string) *Encoder {
	if strings.EqualFold(name, "INBOX") {
		return enc.Atom("INBOX")
	}
	encoded, err := utf7.Encoding.NewEncoder().String(name)
	if err != nil {
		enc.setErr(errors.Wrapf(err, "mailbox %q", name))
		return enc
	}
	return enc.Quoted(encoded)
}

func (enc *Encoder) Flag(flag imap.Flag) *Encoder {
	return enc.writeString(string(flag))
}

func (enc *Encoder) List(n int, f func(i int)) *Encoder {
	enc.Special('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			enc.SP()
		}
		f(i)
	}
	enc.Special(')')
	return enc
}
