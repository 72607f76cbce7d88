package imapclient

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/internal/imapwire"
)

var (
	// ErrUnrecognizedResponse is reported for lines outside the grammar
	// understood by the client. Such lines are skipped by the router.
	ErrUnrecognizedResponse = errors.New("imapclient: unrecognized response")
	// ErrUnknownFlag is reported for a backslash flag outside the system
	// flag set.
	ErrUnknownFlag = errors.New("imapclient: unknown system flag")
)

// ParseError describes a server line that could not be parsed.
type ParseError struct {
	Line string
	Err  error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("imapclient: cannot parse %q: %v", strings.TrimRight(err.Line, "\r\n"), err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// ParseLine parses one server line into a *imap.TaggedResult or an
// imap.UntaggedResult.
//
// The line is expected as returned by imapwire.ReadLine: LF stripped, CR
// kept. Failures are returned as *ParseError.
func ParseLine(line string) (imap.CommandResult, error) {
	dec := imapwire.NewDecoder(line)

	var (
		result imap.CommandResult
		err    error
	)
	if dec.Special('*') {
		if !dec.ExpectSP() {
			err = dec.Err()
		} else {
			result, err = readUntagged(dec)
		}
	} else {
		result, err = readTagged(dec)
	}
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	return result, nil
}

func readTagged(dec *imapwire.Decoder) (*imap.TaggedResult, error) {
	var tag, state string
	if !dec.Func(&tag, isTagChar) {
		return nil, ErrUnrecognizedResponse
	}
	if !dec.ExpectSP() || !dec.ExpectAtom(&state) {
		return nil, errors.Wrap(dec.Err(), "in tagged response")
	}

	var text string
	if dec.SP() {
		dec.Text(&text)
	}
	if !dec.ExpectEOL() {
		return nil, errors.Wrap(dec.Err(), "in tagged response")
	}

	return &imap.TaggedResult{
		Tag:   tag,
		State: imap.ParseResultState(state),
		Text:  text,
	}, nil
}

func readUntagged(dec *imapwire.Decoder) (imap.UntaggedResult, error) {
	// number SP "EXISTS" / number SP "RECENT"
	var num uint32
	if dec.Number(&num) {
		var typ string
		if !dec.ExpectSP() || !dec.ExpectAtom(&typ) {
			return nil, dec.Err()
		}
		var result imap.UntaggedResult
		switch strings.ToUpper(typ) {
		case "EXISTS":
			result = imap.ExistsResult{NumMessages: num}
		case "RECENT":
			result = imap.RecentResult{NumRecent: num}
		default:
			return nil, ErrUnrecognizedResponse
		}
		dec.Discard()
		return result, nil
	} else if err := dec.Err(); err != nil {
		return nil, err
	}

	var typ string
	if !dec.Atom(&typ) {
		return nil, ErrUnrecognizedResponse
	}

	var (
		result imap.UntaggedResult
		err    error
	)
	switch strings.ToUpper(typ) {
	case "FLAGS":
		if !dec.ExpectSP() {
			return nil, dec.Err()
		}
		var flags []imap.Flag
		if flags, err = readFlagList(dec); err != nil {
			return nil, errors.Wrap(err, "in FLAGS")
		}
		result = imap.FlagsResult{Flags: flags}
	case "OK":
		if result, err = readRespTextCode(dec); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnrecognizedResponse
	}

	dec.Discard()
	return result, nil
}

// readRespTextCode reads the response code of an untagged OK response.
func readRespTextCode(dec *imapwire.Decoder) (imap.UntaggedResult, error) {
	var code string
	if !dec.SP() || !dec.Special('[') || !dec.Atom(&code) {
		return nil, ErrUnrecognizedResponse
	}

	code = strings.ToUpper(code)
	switch code {
	case "UNSEEN", "UIDNEXT", "UIDVALIDITY", "PERMANENTFLAGS":
	default:
		return nil, ErrUnrecognizedResponse
	}
	if !dec.ExpectSP() {
		return nil, errors.Wrapf(dec.Err(), "in %v", code)
	}

	if code == "PERMANENTFLAGS" {
		flags, err := readFlagList(dec)
		if err != nil {
			return nil, errors.Wrap(err, "in PERMANENTFLAGS")
		}
		return imap.PermanentFlagsResult{Flags: flags}, nil
	}

	var num uint32
	if !dec.ExpectNumber(&num) {
		return nil, errors.Wrapf(dec.Err(), "in %v", code)
	}
	switch code {
	case "UNSEEN":
		return imap.UnseenResult{SeqNum: num}, nil
	case "UIDNEXT":
		return imap.UIDNextResult{UIDNext: num}, nil
	default:
		return imap.UIDValidityResult{UIDValidity: num}, nil
	}
}

func readFlagList(dec *imapwire.Decoder) ([]imap.Flag, error) {
	var flags []imap.Flag
	err := dec.ExpectList(func() error {
		flag, err := readFlag(dec)
		if err != nil {
			return err
		}
		flags = append(flags, flag)
		return nil
	})
	return flags, err
}

func readFlag(dec *imapwire.Decoder) (imap.Flag, error) {
	if !dec.Special('\\') {
		var keyword string
		if !dec.ExpectAtom(&keyword) {
			return "", errors.Wrap(dec.Err(), "in flag")
		}
		return imap.Flag(keyword), nil
	}

	var name string
	if dec.Special('*') {
		name = "*"
	} else if !dec.ExpectAtom(&name) {
		return "", errors.Wrap(dec.Err(), "in flag")
	}
	flag, ok := imap.ParseSystemFlag(name)
	if !ok {
		return "", errors.Wrapf(ErrUnknownFlag, "\\%v", name)
	}
	return flag, nil
}

func isTagChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
