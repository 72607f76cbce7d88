package imapclient

import (
	"context"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/internal/imapwire"
)

// SelectData is the data returned by a SELECT or EXAMINE command.
type SelectData struct {
	// Flags defined for this mailbox
	Flags []imap.Flag
	// Flags that the client can change permanently
	PermanentFlags []imap.Flag
	// Number of messages in this mailbox (aka. "EXISTS")
	NumMessages uint32
	NumRecent   uint32
	// Sequence number of the first unseen message, zero if not reported
	FirstUnseen uint32
	UIDNext     uint32
	UIDValidity uint32
}

// Select sends a SELECT command.
//
// A NO or BAD completion is returned as an *imap.Error.
func (c *Client) Select(ctx context.Context, mailbox string) (*SelectData, error) {
	return c.selectMailbox(ctx, "SELECT", mailbox)
}

// Examine sends an EXAMINE command, the read-only variant of SELECT.
func (c *Client) Examine(ctx context.Context, mailbox string) (*SelectData, error) {
	return c.selectMailbox(ctx, "EXAMINE", mailbox)
}

func (c *Client) selectMailbox(ctx context.Context, verb, mailbox string) (*SelectData, error) {
	if !utf8.ValidString(mailbox) {
		return nil, errors.Wrapf(ErrInvalidCommand, "%v: mailbox name is not valid UTF-8", verb)
	}

	resp, err := c.execute(ctx, verb, func(enc *imapwire.Encoder) {
		enc.Atom(verb).SP().Mailbox(mailbox)
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return newSelectData(resp.Untagged), nil
}

func newSelectData(untagged []imap.UntaggedResult) *SelectData {
	var data SelectData
	for _, u := range untagged {
		switch u := u.(type) {
		case imap.FlagsResult:
			data.Flags = u.Flags
		case imap.PermanentFlagsResult:
			data.PermanentFlags = u.Flags
		case imap.ExistsResult:
			data.NumMessages = u.NumMessages
		case imap.RecentResult:
			data.NumRecent = u.NumRecent
		case imap.UnseenResult:
			data.FirstUnseen = u.SeqNum
		case imap.UIDNextResult:
			data.UIDNext = u.UIDNext
		case imap.UIDValidityResult:
			data.UIDValidity = u.UIDValidity
		}
	}
	return &data
}
