// Package chat merges chat history with live pushes into one ordered feed
// per conversation, and keeps a business account's unread list current.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/realtime"
)

// Backend is the REST side of chat
type Backend interface {
	ChatHistory(ctx context.Context, senderID, receiverID internal.ID) ([]internal.Message, error)
	SendChat(ctx context.Context, draft internal.Message) (internal.Message, error)
}

// UnreadSource fetches a business account's unread summaries
type UnreadSource interface {
	UnreadChats(ctx context.Context, businessID internal.ID) ([]internal.UnreadSummary, error)
}

// Channel is the realtime side of chat. *realtime.Channel satisfies it.
type Channel interface {
	On(event string, h realtime.Handler) func()
	Emit(event string, v interface{}) error
}

// LoadHistory returns the ordered messages between senderID and receiverID.
// Both ids are required; failures are returned as-is, without retry.
func LoadHistory(ctx context.Context, backend Backend, senderID, receiverID internal.ID) ([]internal.Message, error) {
	if err := requireID("senderId", senderID); err != nil {
		return nil, err
	}
	if err := requireID("receiverId", receiverID); err != nil {
		return nil, err
	}
	return backend.ChatHistory(ctx, senderID, receiverID)
}

func requireID(field string, id internal.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		return &internal.ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// Deliver persists one message and broadcasts the stored record, without a
// mounted view. A failed broadcast is logged; the message is still stored.
func Deliver(ctx context.Context, backend Backend, channel Channel, senderID, receiverID internal.ID, body string, product *internal.Product) (internal.Message, error) {
	if err := requireID("senderId", senderID); err != nil {
		return internal.Message{}, err
	}
	if err := requireID("receiverId", receiverID); err != nil {
		return internal.Message{}, err
	}
	draft, err := newDraft(senderID, receiverID, body, product, time.Now())
	if err != nil {
		return internal.Message{}, err
	}
	return deliver(ctx, backend, channel, draft)
}

func newDraft(senderID, receiverID internal.ID, body string, product *internal.Product, at time.Time) (internal.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && product == nil {
		return internal.Message{}, &internal.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	return internal.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Product:    product,
		Timestamp:  at,
	}, nil
}

// deliver is persist-then-broadcast: nothing is emitted unless the backend
// stored the message.
func deliver(ctx context.Context, backend Backend, channel Channel, draft internal.Message) (internal.Message, error) {
	record, err := backend.SendChat(ctx, draft)
	if err != nil {
		return internal.Message{}, err
	}
	if err := channel.Emit(realtime.EventSendMessage, record); err != nil {
		internal.LogWarn("Message %s saved but not broadcast: %v", record.ID, err)
	}
	return record, nil
}

// decodeMessage reads a receiveMessage payload
func decodeMessage(data json.RawMessage) (internal.Message, bool) {
	var m internal.Message
	if err := json.Unmarshal(data, &m); err != nil {
		internal.LogWarn("Ignoring undecodable chat message: %v", err)
		return internal.Message{}, false
	}
	return m, true
}

// feed is an append-only ordered message list. Appends keep completion order.
type feed struct {
	messages []internal.Message
	// pending holds inbound messages that arrived before the seed
	pending []internal.Message
}

func (f *feed) reset() {
	f.messages = nil
	f.pending = nil
}

func (f *feed) buffer(m internal.Message) {
	f.pending = append(f.pending, m)
}

// seed installs history, then replays buffered messages the history does
// not already contain
func (f *feed) seed(history []internal.Message) {
	f.messages = make([]internal.Message, 0, len(history)+len(f.pending))
	f.messages = append(f.messages, history...)

	seen := make(map[internal.ID]bool, len(history))
	for _, m := range history {
		if m.ID != "" {
			seen[m.ID] = true
		}
	}
	for _, m := range f.pending {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		f.messages = append(f.messages, m)
	}
	f.pending = nil
}

func (f *feed) append(m internal.Message) {
	f.messages = append(f.messages, m)
}

func (f *feed) snapshot() []internal.Message {
	out := make([]internal.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *feed) len() int {
	return len(f.messages)
}

// notifier is a coalescing change signal
type notifier chan struct{}

func newNotifier() notifier {
	return make(notifier, 1)
}

func (n notifier) notify() {
	select {
	case n <- struct{}{}:
	default:
	}
}
