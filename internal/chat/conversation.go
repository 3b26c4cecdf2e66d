package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/realtime"
)

// State of a mounted conversation view
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateLive
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyMounted is returned by Mount on a mounted conversation
	ErrAlreadyMounted = errors.New("conversation is already mounted")
	// ErrNotLive is returned by Send before history has loaded
	ErrNotLive = errors.New("conversation is not live")
	// ErrUnmounted is returned by a Mount that was cut short by Unmount
	ErrUnmounted = errors.New("conversation was unmounted")
)

// Options configures a Conversation
type Options struct {
	// FilterSelfEcho drops inbound messages sent by the local user, for
	// backends that broadcast to the sender as well as the receiver
	FilterSelfEcho bool
	Now            func() time.Time
}

// DefaultOptions returns the options used by the CLI
func DefaultOptions() Options {
	return Options{FilterSelfEcho: true}
}

// Conversation is the live feed of one sender/receiver pair.
//
// Mount loads history and then accepts inbound pushes and local sends until
// Unmount. Send persists first, then broadcasts, then appends, so the feed
// never shows a message the backend rejected.
type Conversation struct {
	backend    Backend
	channel    Channel
	senderID   internal.ID
	receiverID internal.ID
	opts       Options

	mu      sync.Mutex
	state   State
	feed    feed
	err     error
	gen     uint64
	cancel  context.CancelFunc
	off     func()
	changes notifier
}

// NewConversation creates an unmounted conversation between the local user
// (senderID) and receiverID
func NewConversation(backend Backend, channel Channel, senderID, receiverID internal.ID, opts Options) *Conversation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Conversation{
		backend:    backend,
		channel:    channel,
		senderID:   senderID,
		receiverID: receiverID,
		opts:       opts,
		changes:    newNotifier(),
	}
}

// SenderID is the local user
func (c *Conversation) SenderID() internal.ID { return c.senderID }

// ReceiverID is the counterpart
func (c *Conversation) ReceiverID() internal.ID { return c.receiverID }

// LoadHistory fetches the pair's history without touching the feed
func (c *Conversation) LoadHistory(ctx context.Context) ([]internal.Message, error) {
	return LoadHistory(ctx, c.backend, c.senderID, c.receiverID)
}

// Mount registers the inbound listener, loads history and goes live. It
// blocks until history has loaded or failed. A history failure is terminal
// for this mount: the state becomes Error with an empty feed.
func (c *Conversation) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.gen++
	gen := c.gen
	mountCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateLoading
	c.err = nil
	c.feed.reset()
	c.mu.Unlock()
	c.changes.notify()

	// Listen before fetching so nothing pushed during the fetch is lost
	off := c.channel.On(realtime.EventReceiveMessage, c.inbound(gen))
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		off()
		return ErrUnmounted
	}
	c.off = off
	c.mu.Unlock()

	history, err := c.LoadHistory(mountCtx)

	c.mu.Lock()
	if c.gen != gen || c.state != StateLoading {
		c.mu.Unlock()
		internal.LogDebug("Discarding history for unmounted conversation %s", internal.ConversationKey(c.senderID, c.receiverID))
		return ErrUnmounted
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.feed.reset()
		c.mu.Unlock()
		c.changes.notify()
		internal.LogWarn("Failed to load chat history: %v", err)
		return err
	}
	c.feed.seed(history)
	c.state = StateLive
	c.mu.Unlock()
	c.changes.notify()
	return nil
}

// Unmount deregisters the inbound listener, cancels in-flight loading and
// discards the feed. Late completions from the old mount are ignored.
func (c *Conversation) Unmount() {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		return
	}
	c.gen++
	cancel, off := c.cancel, c.off
	c.cancel, c.off = nil, nil
	c.state = StateUninitialized
	c.err = nil
	c.feed.reset()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if off != nil {
		off()
	}
	c.changes.notify()
}

// Send persists a message, broadcasts the stored record and appends it to
// the feed. The body may be empty only when a product is attached.
func (c *Conversation) Send(ctx context.Context, body string, product *internal.Product) (internal.Message, error) {
	draft, err := newDraft(c.senderID, c.receiverID, body, product, c.opts.Now())
	if err != nil {
		return internal.Message{}, err
	}

	c.mu.Lock()
	if c.state != StateLive {
		c.mu.Unlock()
		return internal.Message{}, ErrNotLive
	}
	gen := c.gen
	c.mu.Unlock()

	record, err := deliver(ctx, c.backend, c.channel, draft)
	if err != nil {
		return internal.Message{}, err
	}

	c.mu.Lock()
	if c.gen == gen && c.state == StateLive {
		c.feed.append(record)
		c.mu.Unlock()
		c.changes.notify()
	} else {
		c.mu.Unlock()
	}
	return record, nil
}

func (c *Conversation) inbound(gen uint64) realtime.Handler {
	return func(data json.RawMessage) {
		m, ok := decodeMessage(data)
		if !ok {
			return
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		if !m.BelongsTo(c.senderID, c.receiverID) {
			c.mu.Unlock()
			return
		}
		if c.opts.FilterSelfEcho && m.SenderID == c.senderID {
			c.mu.Unlock()
			internal.LogDebug("Dropping echo of own message %s", m.ID)
			return
		}

		switch c.state {
		case StateLoading:
			c.feed.buffer(m)
			c.mu.Unlock()
		case StateLive:
			c.feed.append(m)
			c.mu.Unlock()
			c.changes.notify()
		default:
			c.mu.Unlock()
		}
	}
}

// Messages returns a copy of the feed
func (c *Conversation) Messages() []internal.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed.snapshot()
}

// Len returns the number of messages in the feed
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed.len()
}

// State returns the current state
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the history failure when the state is Error
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Changes signals after every state change or append. Signals coalesce, so
// a receiver should re-read Messages rather than count signals.
func (c *Conversation) Changes() <-chan struct{} {
	return c.changes
}

// Transcript snapshots the feed for export or caching
func (c *Conversation) Transcript() *internal.Transcript {
	return internal.NewTranscript(c.senderID, c.receiverID, c.Messages())
}
