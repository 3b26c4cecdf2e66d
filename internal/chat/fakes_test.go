package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/realtime"
)

var serverTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend stores messages in memory and assigns ids and timestamps the
// way the chat service does
type fakeBackend struct {
	mu sync.Mutex

	history    []internal.Message
	historyErr error
	// historyGate, when set, holds ChatHistory until it is closed
	historyGate   chan struct{}
	historyCalls  int
	historyCtxErr error

	sendErr   error
	sendCalls int
	nextID    int

	unread      []internal.UnreadSummary
	unreadErr   error
	unreadCalls int
}

func (b *fakeBackend) ChatHistory(ctx context.Context, senderID, receiverID internal.ID) ([]internal.Message, error) {
	b.mu.Lock()
	b.historyCalls++
	gate := b.historyGate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.historyCtxErr = ctx.Err()
	if b.historyErr != nil {
		return nil, b.historyErr
	}
	var out []internal.Message
	for _, m := range b.history {
		if m.BelongsTo(senderID, receiverID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *fakeBackend) SendChat(_ context.Context, draft internal.Message) (internal.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendCalls++
	if b.sendErr != nil {
		return internal.Message{}, b.sendErr
	}
	b.nextID++
	record := draft
	record.ID = internal.ID(fmt.Sprintf("srv-%d", b.nextID))
	record.Timestamp = serverTime.Add(time.Duration(b.nextID) * time.Second)
	b.history = append(b.history, record)
	return record, nil
}

func (b *fakeBackend) UnreadChats(_ context.Context, _ internal.ID) ([]internal.UnreadSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unreadCalls++
	if b.unreadErr != nil {
		return nil, b.unreadErr
	}
	return append([]internal.UnreadSummary(nil), b.unread...), nil
}

// persist stores a message as if another client had sent it
func (b *fakeBackend) persist(m internal.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, m)
}

func (b *fakeBackend) counts() (history, send, unread int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.historyCalls, b.sendCalls, b.unreadCalls
}

type emitted struct {
	event string
	data  json.RawMessage
}

type handlerEntry struct {
	event   string
	h       realtime.Handler
	removed bool
}

// fakeChannel delivers pushes synchronously on the caller's goroutine
type fakeChannel struct {
	mu       sync.Mutex
	handlers []*handlerEntry
	emitted  []emitted
	emitErr  error
}

func (f *fakeChannel) On(event string, h realtime.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := &handlerEntry{event: event, h: h}
	f.handlers = append(f.handlers, entry)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		entry.removed = true
	}
}

func (f *fakeChannel) Emit(event string, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.emitted = append(f.emitted, emitted{event: event, data: data})
	return nil
}

func (f *fakeChannel) push(t *testing.T, event string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	f.pushRaw(event, data)
}

func (f *fakeChannel) pushRaw(event string, data json.RawMessage) {
	f.mu.Lock()
	var handlers []realtime.Handler
	for _, e := range f.handlers {
		if e.event == event && !e.removed {
			handlers = append(handlers, e.h)
		}
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

func (f *fakeChannel) listenerCount(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.handlers {
		if e.event == event && !e.removed {
			n++
		}
	}
	return n
}

func (f *fakeChannel) emits() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.emitted...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func bodies(messages []internal.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Body
	}
	return out
}

func msg(id, from, to, body string, sec int) internal.Message {
	return internal.Message{
		ID:         internal.ID(id),
		SenderID:   internal.ID(from),
		ReceiverID: internal.ID(to),
		Body:       body,
		Timestamp:  time.Unix(int64(sec), 0).UTC(),
	}
}
