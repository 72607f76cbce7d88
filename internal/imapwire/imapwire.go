// Package imapwire implements the IMAP wire protocol.
//
// The IMAP wire protocol is defined in RFC 9051 section 4. Only line-oriented
// data is handled: literals and continuation requests are not.
package imapwire

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// DefaultMaxLineLength is the line length limit used when none is configured.
const DefaultMaxLineLength = 8192

// ErrLineTooLong is returned by ReadLine when a line exceeds the limit. The
// whole line has been consumed, the next call starts on the following line.
var ErrLineTooLong = errors.New("imapwire: line too long")

// ReadLine reads one LF-terminated line. The LF is stripped, a preceding CR is
// kept. Lines longer than max bytes (CR included) are discarded and reported
// with ErrLineTooLong.
//
// A stream ending in the middle of a line yields io.ErrUnexpectedEOF.
func ReadLine(br *bufio.Reader, max int) (string, error) {
	if max <= 0 {
		max = DefaultMaxLineLength
	}

	var (
		buf     []byte
		n       int
		tooLong bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		n += len(chunk)
		if !tooLong && n > max+1 {
			tooLong = true
			buf = nil
		}
		if !tooLong {
			buf = append(buf, chunk...)
		}

		if err == bufio.ErrBufferFull {
			continue
		} else if err == io.EOF {
			if n == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		} else if err != nil {
			return "", err
		}
		break
	}

	if tooLong {
		return "", ErrLineTooLong
	}
	return string(buf[:len(buf)-1]), nil
}
