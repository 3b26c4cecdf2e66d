// Package realtime is the push channel to the chat backend: one websocket
// connection carrying JSON event envelopes in both directions.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iksnae/trompo-cli/internal"
)

// Event names used by the chat backend
const (
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
)

var (
	// ErrNotOpen is returned by Emit before Open or after Close
	ErrNotOpen = errors.New("realtime channel is not open")
	// ErrAlreadyOpen is returned by a second Open
	ErrAlreadyOpen = errors.New("realtime channel is already open")
)

// Envelope is the wire frame: {"event": "...", "data": ...}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw data of one event
type Handler func(data json.RawMessage)

// Options configures a Channel
type Options struct {
	// Token is sent as a bearer token on the handshake
	Token            string
	Header           http.Header
	HandshakeTimeout time.Duration
	// PingInterval of zero disables keepalive pings
	PingInterval time.Duration
	// PongWait is how long the connection may stay silent before it is
	// considered dead. Zero disables the read deadline.
	PongWait     time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions returns the options used by the CLI
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     25 * time.Second,
		PongWait:         60 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

type listener struct {
	id uint64
	fn Handler
}

// Channel is an explicitly owned realtime connection. The owner opens it,
// hands it to views, and closes it at shutdown; views only register
// listeners and emit.
type Channel struct {
	url  string
	opts Options

	mu        sync.Mutex
	conn      *websocket.Conn
	listeners map[string][]listener
	nextID    uint64
	closing   bool
	done      chan struct{}
	err       error

	writeMu sync.Mutex
}

// New creates a Channel for url. Nothing is dialed until Open.
func New(url string, opts Options) *Channel {
	return &Channel{
		url:       url,
		opts:      opts,
		listeners: make(map[string][]listener),
	}
}

// URL returns the endpoint the channel dials
func (c *Channel) URL() string {
	return c.url
}

// Open dials the endpoint and starts delivering events to listeners
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.mu.Unlock()

	dialer := &websocket.Dialer{
		HandshakeTimeout: c.opts.HandshakeTimeout,
	}
	header := http.Header{}
	for k, v := range c.opts.Header {
		header[k] = append([]string(nil), v...)
	}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return &internal.TransportError{Op: "open realtime channel", Target: c.url, Err: err}
	}

	if c.opts.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		})
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyOpen
	}
	c.conn = conn
	c.closing = false
	c.err = nil
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	internal.LogDebug("Realtime channel open: %s", c.url)

	go c.readLoop(conn, done)
	if c.opts.PingInterval > 0 {
		go c.pingLoop(conn, done)
	}
	return nil
}

// Close shuts the connection down and waits for the read loop to exit.
// Closing an unopened or already closed channel is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	if conn == nil || c.closing {
		c.mu.Unlock()
		if done != nil {
			<-done
		}
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := conn.Close()
	<-done
	return err
}

// Done is closed when the connection ends, whether by Close or by failure
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Err reports why the connection ended; nil after a clean Close
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// On registers h for event and returns its deregistration function. Any
// number of listeners may share an event; deregistering twice is harmless.
// Listeners run one at a time on the read goroutine, in delivery order.
func (c *Channel) On(event string, h Handler) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[event] = append(c.listeners[event], listener{id: id, fn: h})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			current := c.listeners[event]
			for i, l := range current {
				if l.id == id {
					kept := make([]listener, 0, len(current)-1)
					kept = append(kept, current[:i]...)
					kept = append(kept, current[i+1:]...)
					c.listeners[event] = kept
					break
				}
			}
			if len(c.listeners[event]) == 0 {
				delete(c.listeners, event)
			}
		})
	}
}

// ListenerCount returns the number of listeners registered for event
func (c *Channel) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}

// Emit sends one event. It is safe to call from multiple goroutines.
func (c *Channel) Emit(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	c.mu.Lock()
	conn, closing := c.conn, c.closing
	c.mu.Unlock()
	if conn == nil || closing {
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	if err := conn.WriteJSON(Envelope{Event: event, Data: data}); err != nil {
		return &internal.TransportError{Op: "emit " + event, Target: c.url, Err: err}
	}
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			internal.LogWarn("Ignoring malformed realtime frame: %q", truncate(data, 120))
			continue
		}
		c.dispatch(env)
	}

	c.mu.Lock()
	if !c.closing {
		c.err = &internal.TransportError{Op: "read realtime channel", Target: c.url, Err: readErr}
		internal.LogWarn("Realtime channel lost: %v", readErr)
	}
	c.conn = nil
	c.closing = false
	c.mu.Unlock()

	conn.Close()
	close(done)
}

func (c *Channel) dispatch(env Envelope) {
	c.mu.Lock()
	current := c.listeners[env.Event]
	handlers := make([]Handler, len(current))
	for i, l := range current {
		handlers[i] = l.fn
	}
	c.mu.Unlock()

	if len(handlers) == 0 {
		internal.LogDebug("No listener for realtime event %q", env.Event)
	}
	for _, h := range handlers {
		h(env.Data)
	}
}

func (c *Channel) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.PingInterval)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				internal.LogDebug("Realtime ping failed: %v", err)
				return
			}
		}
	}
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
