// Package imapclient implements an IMAP client core.
//
// A Client owns one connection and a single reader goroutine. Any number of
// goroutines may issue commands concurrently: each command is tagged,
// registered, written, and then waits for its tagged completion. Untagged
// results are attributed to the oldest command still waiting, or to the
// unsolicited queue when no command is outstanding.
package imapclient

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/hussein-aitlahcen/imap"
	"github.com/hussein-aitlahcen/imap/internal/imapwire"
	"github.com/hussein-aitlahcen/imap/internal/utf7"
)

var (
	// ErrClosed is returned for commands that could not complete because
	// the connection is closed.
	ErrClosed = errors.New("imapclient: connection closed")
	// ErrNoResponse is returned when a command was cancelled or timed out
	// before its tagged response arrived.
	ErrNoResponse = errors.New("imapclient: no response")
	// ErrInvalidCommand is returned for commands that cannot be written as a
	// single line.
	ErrInvalidCommand = errors.New("imapclient: invalid command")
)

const (
	// Number of tagged results kept for tags the client never issued
	maxOrphanResults = 64
	// Number of timed-out or cancelled tags whose late response is awaited
	maxAbandonedTags = 1024
)

// Transport is the byte stream a Client talks over. Close must unblock a
// pending Read.
//
// net.Conn and *tls.Conn satisfy this interface.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Options contains options for Client.
type Options struct {
	// Raw ingress and egress data will be written to this writer, if any
	DebugWriter io.Writer
	// Logger receives client events. Credentials are never logged. Defaults
	// to a logger discarding everything.
	Logger *slog.Logger
	// MeterProvider is used to create the client instruments. Defaults to
	// the global provider.
	MeterProvider metric.MeterProvider

	// TLS configuration for DialTLS
	TLSConfig *tls.Config
	// Timeout for establishing the connection in Dial and DialTLS
	DialTimeout time.Duration
	// CommandTimeout bounds how long a command waits for its tagged
	// response. Zero means commands only stop waiting when their context is
	// done.
	CommandTimeout time.Duration

	// Maximum length of a server line, defaults to
	// imapwire.DefaultMaxLineLength
	MaxLineLength int
	// Number of unsolicited results kept, defaults to
	// DefaultUnsolicitedCapacity
	UnsolicitedCapacity int
}

func (options *Options) wrapReadWriter(rw io.ReadWriter) io.ReadWriter {
	if options.DebugWriter == nil {
		return rw
	}
	return struct {
		io.Reader
		io.Writer
	}{
		Reader: io.TeeReader(rw, options.DebugWriter),
		Writer: io.MultiWriter(rw, options.DebugWriter),
	}
}

func (options *Options) logger() *slog.Logger {
	if options.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return options.Logger
}

func (options *Options) maxLineLength() int {
	if options.MaxLineLength <= 0 {
		return imapwire.DefaultMaxLineLength
	}
	return options.MaxLineLength
}

// Client is an IMAP client.
//
// IMAP commands are exposed as methods. They block until the tagged response
// is received, the context is done or the connection is closed.
type Client struct {
	conn    Transport
	options Options
	logger  *slog.Logger
	metrics *clientMetrics
	rw      io.ReadWriter
	br      *bufio.Reader
	bw      *bufio.Writer

	// encMutex serializes tag generation, registration and writes, so that
	// the outstanding queue follows the order of commands on the wire
	encMutex sync.Mutex

	mutex       sync.Mutex
	cmdTag      uint64
	pending     pendingTable
	outstanding outstandingQueue
	orphans     *tagCache
	abandoned   *tagCache
	closed      bool

	unsolicited *UnsolicitedQueue

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// New creates a new IMAP client and starts reading server lines.
//
// This function doesn't perform I/O.
//
// A nil options pointer is equivalent to a zero options value.
func New(conn Transport, options *Options) *Client {
	if options == nil {
		options = &Options{}
	}

	rw := options.wrapReadWriter(conn)
	client := &Client{
		conn:        conn,
		options:     *options,
		logger:      options.logger(),
		metrics:     newClientMetrics(options.MeterProvider),
		rw:          rw,
		br:          bufio.NewReader(rw),
		bw:          bufio.NewWriter(rw),
		pending:     make(pendingTable),
		orphans:     newTagCache(maxOrphanResults),
		abandoned:   newTagCache(maxAbandonedTags),
		unsolicited: NewUnsolicitedQueue(options.UnsolicitedCapacity),
		done:        make(chan struct{}),
	}
	go client.read()
	return client
}

// Dial connects to an IMAP server without TLS.
func Dial(address string, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}
	dialer := net.Dialer{Timeout: options.DialTimeout}
	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "imapclient: failed to dial %v", address)
	}
	return New(conn, options), nil
}

// DialTLS connects to an IMAP server with implicit TLS.
func DialTLS(address string, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}
	dialer := net.Dialer{Timeout: options.DialTimeout}
	conn, err := tls.DialWithDialer(&dialer, "tcp", address, options.TLSConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "imapclient: failed to dial %v", address)
	}
	return New(conn, options), nil
}

// Close closes the connection and waits for the reader goroutine to exit.
// Commands still waiting fail with ErrClosed.
//
// Close is safe to call more than once.
func (c *Client) Close() error {
	c.closing.Store(true)
	err := c.closeConn()
	<-c.done
	return err
}

func (c *Client) closeConn() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Done returns a channel closed once the reader goroutine has exited, either
// because Close was called or because the connection failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Unsolicited returns the queue of untagged results received while no
// command was outstanding.
func (c *Client) Unsolicited() *UnsolicitedQueue {
	return c.unsolicited
}

// read continuously reads lines coming from the server.
//
// Each line is parsed and dispatched in the read goroutine. Lines which
// cannot be parsed are skipped.
func (c *Client) read() {
	var err error
	defer func() {
		c.teardown(err)
	}()

	maxLen := c.options.maxLineLength()
	for {
		var line string
		line, err = imapwire.ReadLine(c.br, maxLen)
		if errors.Is(err, imapwire.ErrLineTooLong) {
			c.metrics.line(lineKindTooLong)
			c.logger.Warn("discarding server line", "err", err, "max", maxLen)
			continue
		} else if err != nil {
			return
		}
		c.handleLine(line)
	}
}

func (c *Client) teardown(err error) {
	c.mutex.Lock()
	c.closed = true
	outstanding := c.outstanding
	c.outstanding = nil
	c.pending = make(pendingTable)
	c.orphans = newTagCache(maxOrphanResults)
	c.abandoned = newTagCache(maxAbandonedTags)
	c.mutex.Unlock()

	for _, req := range outstanding {
		req.complete(nil, ErrClosed)
	}
	c.unsolicited.close()

	switch {
	case c.closing.Load():
		c.logger.Debug("connection closed")
	case errors.Is(err, io.EOF):
		c.logger.Info("connection closed by server")
	default:
		c.logger.Error("connection failed", "err", err)
	}
	c.closeConn()
	close(c.done)
}

func (c *Client) handleLine(line string) {
	result, err := ParseLine(line)
	if err != nil {
		c.metrics.line(lineKindUnparsed)
		c.logger.Debug("discarding server line",
			"line", strings.TrimRight(line, "\r"), "err", err)
		return
	}

	switch result := result.(type) {
	case *imap.TaggedResult:
		c.metrics.line(lineKindTagged)
		c.dispatchTagged(result)
	case imap.UntaggedResult:
		c.metrics.line(lineKindUntagged)
		c.dispatchUntagged(result)
	}
}

func (c *Client) dispatchTagged(tagged *imap.TaggedResult) {
	c.mutex.Lock()
	req := c.outstanding.remove(tagged.Tag)
	if req == nil {
		if _, ok := c.abandoned.take(tagged.Tag); ok {
			c.mutex.Unlock()
			c.logger.Debug("dropping response for abandoned command", "tag", tagged.Tag)
			return
		}
		evicted, ok := c.orphans.add(tagged.Tag, tagged)
		c.mutex.Unlock()
		c.logger.Debug("received response for unknown tag", "tag", tagged.Tag)
		if ok {
			c.metrics.orphan()
			c.logger.Debug("dropping oldest response for unknown tag", "tag", evicted)
		}
		return
	}
	entry := c.pending.get(tagged.Tag)
	delete(c.pending, tagged.Tag)
	c.mutex.Unlock()

	entry.tagged = tagged
	req.complete(entry.response(), nil)
}

func (c *Client) dispatchUntagged(untagged imap.UntaggedResult) {
	c.mutex.Lock()
	if head := c.outstanding.head(); head != nil {
		entry := c.pending.get(head.tag)
		entry.untagged = append(entry.untagged, untagged)
		c.mutex.Unlock()
		return
	}
	c.mutex.Unlock()

	if c.unsolicited.Push(untagged) {
		c.metrics.droppedUnsolicited()
		c.logger.Debug("unsolicited queue full, dropped oldest result")
	}
}

// register creates a request for a fresh tag and appends it to the
// outstanding queue.
//
// Registration happens before the command is written, so a tagged response
// stored for the new tag answers a command this client never sent. It is
// discarded.
func (c *Client) register() (*responseRequest, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	req := newResponseRequest(c.nextTag())
	if stale, ok := c.orphans.take(req.tag); ok {
		c.metrics.orphan()
		c.logger.Warn("discarding response received before its command was sent",
			"tag", req.tag, "state", stale.State)
	}
	c.pending.get(req.tag)
	c.outstanding = append(c.outstanding, req)
	return req, nil
}

// nextTag must be called with mutex held.
func (c *Client) nextTag() string {
	for {
		c.cmdTag++
		tag := fmt.Sprintf("T%v", c.cmdTag)
		if !c.outstanding.contains(tag) {
			return tag
		}
	}
}

// abandon removes a request which stopped waiting. A tagged response
// arriving later for its tag is dropped. It returns false if the request was
// already completed.
func (c *Client) abandon(req *responseRequest) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.outstanding.remove(req.tag) == nil {
		return false
	}
	delete(c.pending, req.tag)
	if evicted, ok := c.abandoned.add(req.tag, nil); ok {
		c.logger.Debug("no longer waiting for late response", "tag", evicted)
	}
	return true
}

// execute sends one command and waits for its response. writeArgs writes
// the command after the tag and a space.
func (c *Client) execute(ctx context.Context, verb string, writeArgs func(enc *imapwire.Encoder)) (*imap.RequestResponse, error) {
	start := time.Now()

	c.encMutex.Lock()
	req, err := c.register()
	if err != nil {
		c.encMutex.Unlock()
		return nil, err
	}
	enc := imapwire.NewEncoder(c.bw)
	enc.Atom(req.tag).SP()
	writeArgs(enc)
	if err = enc.CRLF(); err != nil {
		c.bw.Reset(c.rw)
	}
	c.encMutex.Unlock()

	if err != nil {
		c.abandon(req)
		c.metrics.command("error", start)
		if errors.Is(err, imapwire.ErrUnquotable) || errors.Is(err, utf7.ErrInvalid) {
			return nil, errors.Wrapf(ErrInvalidCommand, "%v: %v", verb, err)
		}
		// The stream may hold a partial command
		c.logger.Error("failed to send command", "tag", req.tag, "command", verb, "err", err)
		c.closeConn()
		return nil, errors.Wrapf(err, "imapclient: failed to send %v", verb)
	}
	c.logger.Debug("command sent", "tag", req.tag, "command", verb)

	resp, err := c.wait(ctx, req)
	if err != nil {
		c.metrics.command("error", start)
		return nil, err
	}
	c.metrics.command(string(resp.Tagged.State), start)
	c.logger.Debug("command completed", "tag", req.tag, "command", verb, "state", resp.Tagged.State)
	return resp, nil
}

func (c *Client) wait(ctx context.Context, req *responseRequest) (*imap.RequestResponse, error) {
	if timeout := c.options.CommandTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case res := <-req.done:
		return res.resp, res.err
	case <-ctx.Done():
		if c.abandon(req) {
			c.logger.Debug("command abandoned", "tag", req.tag, "err", ctx.Err())
			return nil, errors.Wrapf(ErrNoResponse, "%v: %v", req.tag, ctx.Err())
		}
		// Completed while the context expired
		res := <-req.done
		return res.resp, res.err
	}
}

// Send sends a raw command line, without tag and CRLF, and waits for its
// response.
//
// NO and BAD completions are returned as data, see imap.RequestResponse.Err.
// The command must not contain CR or LF.
func (c *Client) Send(ctx context.Context, command []byte) (*imap.RequestResponse, error) {
	if len(command) == 0 || bytes.ContainsAny(command, "\r\n") {
		return nil, errors.Wrapf(ErrInvalidCommand, "%q", command)
	}
	verb, _, _ := bytes.Cut(command, []byte(" "))
	return c.execute(ctx, strings.ToUpper(string(verb)), func(enc *imapwire.Encoder) {
		enc.Raw(command)
	})
}

// Login sends a LOGIN command. Both credentials are sent as quoted strings.
func (c *Client) Login(ctx context.Context, username, password string) (*imap.RequestResponse, error) {
	if !imapwire.ValidQuoted(username) || !imapwire.ValidQuoted(password) {
		return nil, errors.Wrap(ErrInvalidCommand, "LOGIN: credentials contain CR, LF or NUL")
	}
	return c.execute(ctx, "LOGIN", func(enc *imapwire.Encoder) {
		enc.Atom("LOGIN").SP().Quoted(username).SP().Quoted(password)
	})
}

// Noop sends a NOOP command.
//
// Servers use the response to report mailbox updates, which are returned
// as untagged results.
func (c *Client) Noop(ctx context.Context) (*imap.RequestResponse, error) {
	return c.execute(ctx, "NOOP", func(enc *imapwire.Encoder) {
		enc.Atom("NOOP")
	})
}

// Logout sends a LOGOUT command, then closes the connection.
func (c *Client) Logout(ctx context.Context) (*imap.RequestResponse, error) {
	resp, err := c.execute(ctx, "LOGOUT", func(enc *imapwire.Encoder) {
		enc.Atom("LOGOUT")
	})
	closeErr := c.Close()
	if err != nil {
		return nil, err
	}
	return resp, closeErr
}
