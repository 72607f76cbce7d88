package imapclient

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/internal/imapwire"
)

// FormatLine renders a result as the CRLF-terminated line a server would
// send for it. ParseLine(FormatLine(r)) yields a value equal to r.
func FormatLine(result imap.CommandResult) string {
	var sb strings.Builder
	bw := bufio.NewWriter(&sb)
	enc := imapwire.NewEncoder(bw)

	flagList := func(flags []imap.Flag) {
		enc.List(len(flags), func(i int) {
			enc.Flag(flags[i])
		})
	}

	switch r := result.(type) {
	case *imap.TaggedResult:
		enc.Atom(r.Tag).SP().Atom(string(r.State))
		if r.Text != "" {
			enc.SP().Text(r.Text)
		}
	case imap.FlagsResult:
		enc.Atom("*").SP().Atom("FLAGS").SP()
		flagList(r.Flags)
	case imap.ExistsResult:
		enc.Atom("*").SP().Number(r.NumMessages).SP().Atom("EXISTS")
	case imap.RecentResult:
		enc.Atom("*").SP().Number(r.NumRecent).SP().Atom("RECENT")
	case imap.UnseenResult:
		enc.Atom("*").SP().Atom("OK").SP().Special('[').Atom("UNSEEN").SP().Number(r.SeqNum).Special(']')
	case imap.PermanentFlagsResult:
		enc.Atom("*").SP().Atom("OK").SP().Special('[').Atom("PERMANENTFLAGS").SP()
		flagList(r.Flags)
		enc.Special(']')
	case imap.UIDNextResult:
		enc.Atom("*").SP().Atom("OK").SP().Special('[').Atom("UIDNEXT").SP().Number(r.UIDNext).Special(']')
	case imap.UIDValidityResult:
		enc.Atom("*").SP().Atom("OK").SP().Special('[').Atom("UIDVALIDITY").SP().Number(r.UIDValidity).Special(']')
	default:
		panic(fmt.Errorf("imapclient: unknown result type %T", result))
	}

	// strings.Builder never fails
	_ = enc.CRLF()
	return sb.String()
}
