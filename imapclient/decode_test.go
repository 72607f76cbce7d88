package imapclient_test

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/imapclient"
)

var parseLineTests = []struct {
	line string
	want imap.CommandResult
}{
	{
		line: "a001 OK LOGIN completed\r",
		want: &imap.TaggedResult{Tag: "a001", State: imap.ResultStateOK, Text: "LOGIN completed"},
	},
	{
		line: "T12 NO [AUTHENTICATIONFAILED] Invalid credentials\r",
		want: &imap.TaggedResult{Tag: "T12", State: imap.ResultStateNo, Text: "[AUTHENTICATIONFAILED] Invalid credentials"},
	},
	{
		line: "A2 bad\r",
		want: &imap.TaggedResult{Tag: "A2", State: imap.ResultStateBad},
	},
	{
		line: "A3 PREAUTH hello\r",
		want: &imap.TaggedResult{Tag: "A3", State: imap.ResultStateBad, Text: "hello"},
	},
	{
		line: "a002 ok done",
		want: &imap.TaggedResult{Tag: "a002", State: imap.ResultStateOK, Text: "done"},
	},
	{
		line: "* 23 EXISTS\r",
		want: imap.ExistsResult{NumMessages: 23},
	},
	{
		line: "* 5 RECENT\r",
		want: imap.RecentResult{NumRecent: 5},
	},
	{
		line: "* FLAGS (\\Seen \\Deleted customflag)\r",
		want: imap.FlagsResult{Flags: []imap.Flag{imap.FlagSeen, imap.FlagDeleted, "customflag"}},
	},
	{
		line: "* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft $Forwarded)\r",
		want: imap.FlagsResult{Flags: []imap.Flag{
			imap.FlagAnswered, imap.FlagFlagged, imap.FlagDeleted, imap.FlagSeen, imap.FlagDraft, "$Forwarded",
		}},
	},
	{
		line: "* FLAGS ()\r",
		want: imap.FlagsResult{},
	},
	{
		line: "* OK [UNSEEN 12] Message 12 is first unseen\r",
		want: imap.UnseenResult{SeqNum: 12},
	},
	{
		line: "* OK [PERMANENTFLAGS (\\Deleted \\Seen \\*)] Limited\r",
		want: imap.PermanentFlagsResult{Flags: []imap.Flag{imap.FlagDeleted, imap.FlagSeen, imap.FlagAny}},
	},
	{
		line: "* OK [UIDNEXT 4392] Predicted next UID\r",
		want: imap.UIDNextResult{UIDNext: 4392},
	},
	{
		line: "* OK [UIDVALIDITY 3857529045] UIDs valid\r",
		want: imap.UIDValidityResult{UIDValidity: 3857529045},
	},
	{
		line: "* FLAGS (\\seen \\RECENT)\r",
		want: imap.FlagsResult{Flags: []imap.Flag{imap.FlagSeen, imap.FlagRecent}},
	},
}

func TestParseLine(t *testing.T) {
	for _, tc := range parseLineTests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := imapclient.ParseLine(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatLine_roundTrip(t *testing.T) {
	for _, tc := range parseLineTests {
		t.Run(tc.line, func(t *testing.T) {
			line := imapclient.FormatLine(tc.want)
			assert.Regexp(t, "\r\n$", line)

			got, err := imapclient.ParseLine(line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "* 23 EXISTS\r\n", imapclient.FormatLine(imap.ExistsResult{NumMessages: 23}))
	assert.Equal(t, "* FLAGS (\\Seen \\Deleted customflag)\r\n",
		imapclient.FormatLine(imap.FlagsResult{Flags: []imap.Flag{imap.FlagSeen, imap.FlagDeleted, "customflag"}}))
	assert.Equal(t, "* OK [UIDVALIDITY 7]\r\n", imapclient.FormatLine(imap.UIDValidityResult{UIDValidity: 7}))
	assert.Equal(t, "a001 OK LOGIN completed\r\n",
		imapclient.FormatLine(&imap.TaggedResult{Tag: "a001", State: imap.ResultStateOK, Text: "LOGIN completed"}))
}

func TestParseLine_unrecognized(t *testing.T) {
	lines := []string{
		"\r",
		"* OK IMAP4rev1 Service Ready\r",
		"* OK [CAPABILITY IMAP4rev1] ready\r",
		"* BYE Logging out\r",
		"* CAPABILITY IMAP4rev1 AUTH=PLAIN\r",
		"* 3 FETCH (FLAGS (\\Seen))\r",
		"+ idling\r",
		"+\r",
		"* LIST () \"/\" INBOX\r",
	}
	for _, line := range lines {
		_, err := imapclient.ParseLine(line)
		var parseErr *imapclient.ParseError
		require.True(t, errors.As(err, &parseErr), "%q: %v", line, err)
		assert.Equal(t, line, parseErr.Line)
		assert.ErrorIs(t, err, imapclient.ErrUnrecognizedResponse, line)
	}
}

func TestParseLine_unknownFlag(t *testing.T) {
	_, err := imapclient.ParseLine("* FLAGS (\\Seen \\Bogus)\r")
	assert.ErrorIs(t, err, imapclient.ErrUnknownFlag)

	_, err = imapclient.ParseLine("* OK [PERMANENTFLAGS (\\Important)]\r")
	assert.ErrorIs(t, err, imapclient.ErrUnknownFlag)
}

func TestParseLine_numberOverflow(t *testing.T) {
	for _, line := range []string{
		"* 4294967296 EXISTS\r",
		"* OK [UIDNEXT 99999999999]\r",
	} {
		_, err := imapclient.ParseLine(line)
		var numErr *strconv.NumError
		assert.True(t, errors.As(err, &numErr), "%q: %v", line, err)
	}
}

func TestParseLine_malformed(t *testing.T) {
	lines := []string{
		"* FLAGS \\Seen\r",
		"* FLAGS (\\Seen  \\Deleted)\r",
		"* FLAGS (\\Seen\r",
		"* OK [UIDNEXT abc]\r",
		"a001\r",
	}
	for _, line := range lines {
		_, err := imapclient.ParseLine(line)
		var parseErr *imapclient.ParseError
		assert.True(t, errors.As(err, &parseErr), "%q: %v", line, err)
	}
}
