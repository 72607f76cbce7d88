package imap

// UntaggedResult is an untagged status or data line understood by the client.
//
// The concrete types are FlagsResult, ExistsResult, RecentResult,
// UnseenResult, PermanentFlagsResult, UIDNextResult and UIDValidityResult.
type UntaggedResult interface {
	CommandResult
	untaggedResult()
}

// FlagsResult is a "* FLAGS" response: flags defined for the mailbox.
type FlagsResult struct {
	Flags []Flag
}

// ExistsResult is a "* n EXISTS" response.
type ExistsResult struct {
	NumMessages uint32
}

// RecentResult is a "* n RECENT" response.
type RecentResult struct {
	NumRecent uint32
}

// UnseenResult is a "* OK [UNSEEN n]" response: the sequence number of the
// first unseen message.
type UnseenResult struct {
	SeqNum uint32
}

// PermanentFlagsResult is a "* OK [PERMANENTFLAGS (...)]" response.
type PermanentFlagsResult struct {
	Flags []Flag
}

// UIDNextResult is a "* OK [UIDNEXT n]" response.
type UIDNextResult struct {
	UIDNext uint32
}

// UIDValidityResult is a "* OK [UIDVALIDITY n]" response.
type UIDValidityResult struct {
	UIDValidity uint32
}

func (FlagsResult) commandResult()          {}
func (ExistsResult) commandResult()         {}
func (RecentResult) commandResult()         {}
func (UnseenResult) commandResult()         {}
func (PermanentFlagsResult) commandResult() {}
func (UIDNextResult) commandResult()        {}
func (UIDValidityResult) commandResult()    {}

func (FlagsResult) untaggedResult()          {}
func (ExistsResult) untaggedResult()         {}
func (RecentResult) untaggedResult()         {}
func (UnseenResult) untaggedResult()         {}
func (PermanentFlagsResult) untaggedResult() {}
func (UIDNextResult) untaggedResult()        {}
func (UIDValidityResult) untaggedResult()    {}
