package imap

import (
	"fmt"
	"strings"
)

// ResultState is the completion state carried by a tagged response.
type ResultState string

const (
	ResultStateOK  ResultState = "OK"
	ResultStateNo  ResultState = "NO"
	ResultStateBad ResultState = "BAD"
)

// ParseResultState parses a completion state. Any token other than OK, NO or
// BAD maps to ResultStateBad.
func ParseResultState(s string) ResultState {
	switch state := ResultState(strings.ToUpper(s)); state {
	case ResultStateOK, ResultStateNo:
		return state
	default:
		return ResultStateBad
	}
}

// CommandResult is a single parsed server line: either a *TaggedResult or an
// UntaggedResult.
type CommandResult interface {
	commandResult()
}

// TaggedResult is a tagged completion line.
//
// See RFC 9051 section 7.1.
type TaggedResult struct {
	Tag   string
	State ResultState
	// Text is the remainder of the line after the state, response code
	// included.
	Text string
}

func (*TaggedResult) commandResult() {}

// RequestResponse is everything the server sent back for one command.
type RequestResponse struct {
	// Untagged results attributed to the command, in arrival order
	Untagged []UntaggedResult
	// Tagged completion, always the last line of the response
	Tagged *TaggedResult
}

// Err returns an *Error if the command did not complete with OK.
func (resp *RequestResponse) Err() error {
	if resp.Tagged == nil {
		return &Error{State: ResultStateBad, Text: "missing tagged response"}
	}
	if resp.Tagged.State == ResultStateOK {
		return nil
	}
	return &Error{State: resp.Tagged.State, Text: resp.Tagged.Text}
}

// Error is an IMAP error caused by a NO or BAD completion.
type Error struct {
	State ResultState
	Text  string
}

var _ error = (*Error)(nil)

// Error implements the error interface.
func (err *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "imap: %v", err.State)
	text := err.Text
	if text == "" {
		text = "<unknown>"
	}
	fmt.Fprintf(&sb, " %v", text)
	return sb.String()
}
