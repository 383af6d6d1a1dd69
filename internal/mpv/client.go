package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"segskip/internal/logging"
)

// ErrClosed is returned by commands issued after the connection ended.
var ErrClosed = errors.New("mpv connection closed")

const eventBuffer = 256

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is either a command response or an event; mpv sends both on the same stream.
type message struct {
	RequestID *int64          `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
}

type response struct {
	data json.RawMessage
	err  error
}

// Client is one IPC connection to mpv.
type Client struct {
	conn   net.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan response
	err     error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to an mpv IPC endpoint. Paths containing ':' are treated as TCP addresses.
func Dial(ctx context.Context, socketPath string, logger *slog.Logger) (*Client, error) {
	network := "unix"
	if strings.Contains(socketPath, ":") {
		network = "tcp"
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial mpv %s: %w", socketPath, err)
	}
	return NewClient(conn, logger), nil
}

// NewClient wraps an established connection and starts reading from it.
func NewClient(conn net.Conn, logger *slog.Logger) *Client {
	c := &Client{
		conn:    conn,
		logger:  logging.NewComponentLogger(logger, "mpv"),
		pending: make(map[int64]chan response),
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Events returns the player event stream. It is closed when the connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close terminates the connection.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

// Command sends an IPC command and waits for its response data.
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, errors.New("mpv command is empty")
	}
	id := c.nextID.Add(1)
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.err != nil || c.pending == nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	payload = append(payload, '\n')

	c.writeMu.Lock()
	_, err = c.conn.Write(payload)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("write mpv command: %w", errors.Join(ErrClosed, err))
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, fmt.Errorf("mpv %v: %w", args[0], resp.err)
		}
		return resp.data, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	if c.pending != nil {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Debug("ignoring malformed mpv message", logging.Error(err))
			continue
		}
		if msg.Event != "" {
			c.dispatchEvent(msg)
			continue
		}
		if msg.RequestID != nil {
			c.deliver(*msg.RequestID, msg)
		}
	}

	err := scanner.Err()
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		err = ErrClosed
	}
	c.shutdown(err)
}

func (c *Client) deliver(id int64, msg message) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if !ok {
		return
	}
	resp := response{data: msg.Data}
	if msg.Error != "" && msg.Error != "success" {
		resp.err = errors.New(msg.Error)
	}
	ch <- resp
}

func (c *Client) dispatchEvent(msg message) {
	event, ok := parseEvent(msg)
	if !ok {
		return
	}
	select {
	case c.events <- event:
	default:
		c.logger.Debug("dropping mpv event, consumer is behind", logging.String("event", event.Kind.String()))
	}
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, ch := range pending {
			ch <- response{err: ErrClosed}
		}
		close(c.events)
		close(c.done)
	})
}
