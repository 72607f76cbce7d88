package imapclient

import (
	"context"
	"sync"

	"github.com/hussein-aitlahcen/imap"
)

// DefaultUnsolicitedCapacity is the number of unsolicited results kept when
// Options.UnsolicitedCapacity is zero.
const DefaultUnsolicitedCapacity = 20

// UnsolicitedQueue holds untagged results received while no command was
// outstanding, such as mailbox size changes.
//
// The queue is bounded: pushing to a full queue drops the oldest result, the
// writer never blocks. Readers either take a snapshot with Items or consume
// through their own Subscription.
type UnsolicitedQueue struct {
	mutex   sync.Mutex
	buf     []imap.UntaggedResult
	start   int    // index of the oldest result in buf
	n       int    // number of results in buf
	seq     uint64 // sequence number of the next result pushed
	dropped uint64
	notify  chan struct{}
	closed  bool
}

// NewUnsolicitedQueue creates a queue holding at most capacity results.
func NewUnsolicitedQueue(capacity int) *UnsolicitedQueue {
	if capacity <= 0 {
		capacity = DefaultUnsolicitedCapacity
	}
	return &UnsolicitedQueue{
		buf:    make([]imap.UntaggedResult, capacity),
		notify: make(chan struct{}),
	}
}

// Push appends a result. It reports whether the oldest result was dropped to
// make room.
func (q *UnsolicitedQueue) Push(u imap.UntaggedResult) (dropped bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return false
	}

	if q.n == len(q.buf) {
		q.buf[q.start] = nil
		q.start = (q.start + 1) % len(q.buf)
		q.n--
		q.dropped++
		dropped = true
	}
	q.buf[(q.start+q.n)%len(q.buf)] = u
	q.n++
	q.seq++

	close(q.notify)
	q.notify = make(chan struct{})
	return dropped
}

// Items returns the retained results, oldest first.
func (q *UnsolicitedQueue) Items() []imap.UntaggedResult {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	l := make([]imap.UntaggedResult, q.n)
	for i := range l {
		l[i] = q.buf[(q.start+i)%len(q.buf)]
	}
	return l
}

// Len returns the number of retained results.
func (q *UnsolicitedQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.n
}

// Cap returns the maximum number of retained results.
func (q *UnsolicitedQueue) Cap() int {
	return len(q.buf)
}

// Dropped returns how many results were discarded because the queue was full.
func (q *UnsolicitedQueue) Dropped() uint64 {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.dropped
}

// Subscribe returns a reader positioned on the oldest retained result.
func (q *UnsolicitedQueue) Subscribe() *Subscription {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return &Subscription{q: q, next: q.seq - uint64(q.n)}
}

func (q *UnsolicitedQueue) close() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
}

// Subscription reads an UnsolicitedQueue at its own pace. Results dropped
// from the queue before the subscription reached them are skipped.
//
// A Subscription must not be used concurrently.
type Subscription struct {
	q    *UnsolicitedQueue
	next uint64
}

// Next blocks until a result is available, the context is done, or the queue
// is closed. Once the queue is closed and drained, ErrClosed is returned.
func (s *Subscription) Next(ctx context.Context) (imap.UntaggedResult, error) {
	for {
		q := s.q
		q.mutex.Lock()
		oldest := q.seq - uint64(q.n)
		if s.next < oldest {
			s.next = oldest
		}
		if s.next < q.seq {
			u := q.buf[(q.start+int(s.next-oldest))%len(q.buf)]
			s.next++
			q.mutex.Unlock()
			return u, nil
		}
		if q.closed {
			q.mutex.Unlock()
			return nil, ErrClosed
		}
		notify := q.notify
		q.mutex.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
