package imapclient

import (
	"github.com/hussein-aitlahcen/imap"
)

// pendingEntry accumulates the results received for one tag.
type pendingEntry struct {
	untagged []imap.UntaggedResult
	tagged   *imap.TaggedResult
}

func (entry *pendingEntry) response() *imap.RequestResponse {
	return &imap.RequestResponse{
		Untagged: entry.untagged,
		Tagged:   entry.tagged,
	}
}

// pendingTable maps the tag of a registered command to its accumulated
// results.
type pendingTable map[string]*pendingEntry

func (table pendingTable) get(tag string) *pendingEntry {
	entry, ok := table[tag]
	if !ok {
		entry = &pendingEntry{}
		table[tag] = entry
	}
	return entry
}

// result is what a waiting command receives: a response or an error.
type result struct {
	resp *imap.RequestResponse
	err  error
}

// responseRequest is a registered command waiting for its tagged response.
type responseRequest struct {
	tag  string
	done chan result
}

func newResponseRequest(tag string) *responseRequest {
	return &responseRequest{tag: tag, done: make(chan result, 1)}
}

// complete fills the completion slot. It must be called at most once.
func (req *responseRequest) complete(resp *imap.RequestResponse, err error) {
	req.done <- result{resp: resp, err: err}
	close(req.done)
}

// outstandingQueue lists registered commands in registration order. The head
// is the oldest command still waiting for its tagged response.
type outstandingQueue []*responseRequest

func (q outstandingQueue) head() *responseRequest {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

func (q outstandingQueue) index(tag string) int {
	for i, req := range q {
		if req.tag == tag {
			return i
		}
	}
	return -1
}

func (q outstandingQueue) contains(tag string) bool {
	return q.index(tag) >= 0
}

// remove deletes the command with the given tag and returns it, or nil.
func (q *outstandingQueue) remove(tag string) *responseRequest {
	i := q.index(tag)
	if i < 0 {
		return nil
	}
	req := (*q)[i]
	*q = append((*q)[:i], (*q)[i+1:]...)
	return req
}

// tagCache holds at most limit tags, each with an optional tagged result.
// Adding a new tag to a full cache evicts the oldest one.
type tagCache struct {
	limit int
	order []string
	items map[string]*imap.TaggedResult
}

func newTagCache(limit int) *tagCache {
	return &tagCache{limit: limit, items: make(map[string]*imap.TaggedResult)}
}

// add stores tag with its result. A tag already present keeps its position.
// The evicted tag is returned, if any.
func (tc *tagCache) add(tag string, tagged *imap.TaggedResult) (evicted string, ok bool) {
	if _, exists := tc.items[tag]; exists {
		tc.items[tag] = tagged
		return "", false
	}
	if len(tc.order) >= tc.limit {
		evicted, ok = tc.order[0], true
		tc.order = tc.order[1:]
		delete(tc.items, evicted)
	}
	tc.order = append(tc.order, tag)
	tc.items[tag] = tagged
	return evicted, ok
}

// take removes tag and returns its result.
func (tc *tagCache) take(tag string) (*imap.TaggedResult, bool) {
	tagged, ok := tc.items[tag]
	if !ok {
		return nil, false
	}
	delete(tc.items, tag)
	for i, t := range tc.order {
		if t == tag {
			tc.order = append(tc.order[:i], tc.order[i+1:]...)
			break
		}
	}
	return tagged, true
}

func (tc *tagCache) contains(tag string) bool {
	_, ok := tc.items[tag]
	return ok
}

func (tc *tagCache) len() int {
	return len(tc.order)
}
