package imapwire

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/pkg/errors"
)

// A Decoder reads IMAP data out of a single response line.
//
// Most methods return a bool. Expect* variants record the first syntax error,
// which is then available via Err.
type Decoder struct {
	line string
	pos  int
	err  error
}

// NewDecoder creates a decoder for one line. A single trailing CR, with or
// without the LF, marks the end of the line.
func NewDecoder(line string) *Decoder {
	return &Decoder{line: line}
}

func (dec *Decoder) Err() error {
	return dec.err
}

func (dec *Decoder) returnErr(err error) bool {
	if err == nil {
		return true
	}
	if dec.err == nil {
		dec.err = err
	}
	return false
}

func (dec *Decoder) peekByte() (byte, bool) {
	if dec.pos >= len(dec.line) {
		return 0, false
	}
	return dec.line[dec.pos], true
}

func (dec *Decoder) acceptByte(want byte) bool {
	if b, ok := dec.peekByte(); !ok || b != want {
		return false
	}
	dec.pos++
	return true
}

// EOF reports whether the end of the line has been reached. The line
// terminator is not considered data.
func (dec *Decoder) EOF() bool {
	switch dec.line[dec.pos:] {
	case "", "\r", "\n", "\r\n":
		return true
	}
	return false
}

func (dec *Decoder) Expect(ok bool, name string) bool {
	if !ok {
		var err error
		if b, more := dec.peekByte(); more {
			err = errors.Errorf("expected %v, got %q at offset %v", name, string(b), dec.pos)
		} else {
			err = errors.Errorf("expected %v, got end of line", name)
		}
		return dec.returnErr(err)
	}
	return true
}

func (dec *Decoder) SP() bool {
	return dec.acceptByte(' ')
}

func (dec *Decoder) ExpectSP() bool {
	return dec.Expect(dec.SP(), "SP")
}

// ExpectEOL checks that nothing but the line terminator is left.
func (dec *Decoder) ExpectEOL() bool {
	return dec.Expect(dec.EOF(), "end of line")
}

// Func reads a non-empty run of bytes accepted by valid.
func (dec *Decoder) Func(ptr *string, valid func(ch byte) bool) bool {
	start := dec.pos
	for dec.pos < len(dec.line) && valid(dec.line[dec.pos]) {
		dec.pos++
	}
	if dec.pos == start {
		return false
	}
	*ptr = dec.line[start:dec.pos]
	return true
}

func (dec *Decoder) Atom(ptr *string) bool {
	return dec.Func(ptr, IsAtomChar)
}

func (dec *Decoder) ExpectAtom(ptr *string) bool {
	return dec.Expect(dec.Atom(ptr), "atom")
}

func (dec *Decoder) Special(b byte) bool {
	return dec.acceptByte(b)
}

func (dec *Decoder) ExpectSpecial(b byte) bool {
	return dec.Expect(dec.Special(b), fmt.Sprintf("'%v'", string(b)))
}

// Text reads the rest of the line, up to the line terminator. The text may be
// empty.
func (dec *Decoder) Text(ptr *string) bool {
	start := dec.pos
	for dec.pos < len(dec.line) {
		if ch := dec.line[dec.pos]; ch == '\r' || ch == '\n' {
			break
		}
		dec.pos++
	}
	*ptr = dec.line[start:dec.pos]
	return true
}

// Discard skips everything up to the line terminator.
func (dec *Decoder) Discard() {
	var s string
	dec.Text(&s)
}

// Number reads a 32-bit decimal number. A run of digits that does not fit is
// reported as an error.
func (dec *Decoder) Number(ptr *uint32) bool {
	var s string
	if !dec.Func(&s, isDigit) {
		return false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return dec.returnErr(errors.Wrap(err, "in number"))
	}
	*ptr = uint32(v)
	return true
}

func (dec *Decoder) ExpectNumber(ptr *uint32) bool {
	if dec.Number(ptr) {
		return true
	}
	if dec.err != nil {
		return false
	}
	return dec.Expect(false, "number")
}

// List reads a parenthesized list whose items are separated by a single SP.
// f is called once per item. isList is false if the next byte is not an
// opening parenthesis.
func (dec *Decoder) List(f func() error) (isList bool, err error) {
	if !dec.Special('(') {
		return false, nil
	}
	if dec.Special(')') {
		return true, nil
	}

	for {
		if err := f(); err != nil {
			return true, err
		}

		if dec.Special(')') {
			return true, nil
		} else if !dec.ExpectSP() {
			return true, dec.Err()
		}
	}
}

func (dec *Decoder) ExpectList(f func() error) error {
	isList, err := dec.List(f)
	if err != nil {
		return err
	} else if !dec.Expect(isList, "(") {
		return dec.Err()
	}
	return nil
}

// IsAtomChar reports whether ch may appear in an atom.
func IsAtomChar(ch byte) bool {
	switch ch {
	case '(', ')', '{', ' ', '%', '*', '"', '\\', ']':
		return false
	default:
		return ch <= unicode.MaxASCII && !unicode.IsControl(rune(ch))
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
