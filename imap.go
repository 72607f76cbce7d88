// Package imap defines the results exchanged between an IMAP client and the
// server it talks to.
//
// The wire syntax is defined in RFC 9051. The client itself lives in the
// imapclient package.
package imap

import (
	"strings"

	"golang.org/x/text/cases"
)

// Flag is a message flag.
//
// System flags start with a backslash and form a closed set. Any other value
// is a keyword (RFC 9051 section 2.3.2).
type Flag string

const (
	// System flags
	FlagSeen     Flag = "\\Seen"
	FlagAnswered Flag = "\\Answered"
	FlagFlagged  Flag = "\\Flagged"
	FlagDeleted  Flag = "\\Deleted"
	FlagDraft    Flag = "\\Draft"
	FlagRecent   Flag = "\\Recent"

	// Permanent flags
	FlagAny Flag = "\\*"
)

// systemFlags maps the case-folded name of each system flag, without its
// leading backslash, to the flag.
var systemFlags = func() map[string]Flag {
	m := make(map[string]Flag)
	for _, flag := range []Flag{
		FlagSeen,
		FlagAnswered,
		FlagFlagged,
		FlagDeleted,
		FlagDraft,
		FlagRecent,
		FlagAny,
	} {
		m[cases.Fold().String(string(flag[1:]))] = flag
	}
	return m
}()

// IsSystem reports whether the flag belongs to the closed system flag set.
func (f Flag) IsSystem() bool {
	return strings.HasPrefix(string(f), "\\")
}

// ParseSystemFlag maps a system flag name, without its leading backslash, to
// a Flag. Names are matched case-insensitively. Unknown names are rejected.
func ParseSystemFlag(name string) (Flag, bool) {
	// A Caser keeps state and cannot be shared between goroutines
	flag, ok := systemFlags[cases.Fold().String(name)]
	return flag, ok
}
