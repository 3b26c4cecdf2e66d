package chatview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/chat"
)

type fakeConversation struct {
	state    chat.State
	messages []internal.Message
	err      error
	sendErr  error
	sent     []string
	products []*internal.Product
	changes  chan struct{}
	mounted  bool
}

func newFakeConversation() *fakeConversation {
	return &fakeConversation{changes: make(chan struct{}, 1)}
}

func (f *fakeConversation) Mount(context.Context) error {
	f.mounted = true
	if f.err != nil {
		f.state = chat.StateError
		return f.err
	}
	f.state = chat.StateLive
	return nil
}

func (f *fakeConversation) Unmount() { f.mounted = false }

func (f *fakeConversation) Send(_ context.Context, body string, product *internal.Product) (internal.Message, error) {
	if f.sendErr != nil {
		return internal.Message{}, f.sendErr
	}
	f.sent = append(f.sent, body)
	f.products = append(f.products, product)
	m := internal.Message{ID: "9", SenderID: "1", ReceiverID: "2", Body: body, Product: product}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeConversation) Messages() []internal.Message {
	return append([]internal.Message(nil), f.messages...)
}
func (f *fakeConversation) State() chat.State { return f.state }
func (f *fakeConversation) Err() error { return f.err }
func (f *fakeConversation) Changes() <-chan struct{} { return f.changes }
func (f *fakeConversation) SenderID() internal.ID { return "1" }
func (f *fakeConversation) ReceiverID() internal.ID { return "2" }

func live(t *testing.T, conv *fakeConversation, product *internal.Product) Model {
	t.Helper()
	m := New(context.Background(), conv, "Chat with 2", product)
	model, _ := m.Update(mountedMsg{err: conv.Mount(context.Background())})
	return model.(Model)
}

func typeText(m Model, text string) Model {
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return model.(Model)
}

// press sends Enter and runs the resulting command, feeding its message back
func pressEnter(t *testing.T, m Model) Model {
	t.Helper()
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(Model)
	if cmd != nil {
		model, _ = m.Update(cmd())
		m = model.(Model)
	}
	return m
}

func TestModel_LoadingThenLive(t *testing.T) {
	conv := newFakeConversation()
	conv.messages = []internal.Message{{SenderID: "2", ReceiverID: "1", Body: "hola", Timestamp: time.Now()}}
	m := New(context.Background(), conv, "Chat with 2", nil)

	if !strings.Contains(m.View(), "Loading messages") {
		t.Errorf("initial view = %q", m.View())
	}

	m = live(t, conv, nil)
	view := m.View()
	if !strings.Contains(view, "hola") || !strings.Contains(view, "User 2") {
		t.Errorf("live view = %q", view)
	}
}

func TestModel_LoadError(t *testing.T) {
	conv := newFakeConversation()
	conv.err = &internal.APIError{Op: "load", Status: 500, Message: "boom"}
	m := live(t, conv, nil)
	if !strings.Contains(m.View(), "Could not load messages") {
		t.Errorf("view = %q", m.View())
	}

	m = typeText(m, "hi")
	m = pressEnter(t, m)
	if len(conv.sent) != 0 {
		t.Error("sending is disabled in the error state")
	}
}

func TestModel_SendOnEnter(t *testing.T) {
	conv := newFakeConversation()
	m := live(t, conv, nil)

	m = typeText(m, "how are you")
	m = pressEnter(t, m)

	if len(conv.sent) != 1 || conv.sent[0] != "how are you" {
		t.Fatalf("sent = %v", conv.sent)
	}
	if m.input.Value() != "" {
		t.Errorf("input should be cleared, got %q", m.input.Value())
	}
	if !strings.Contains(m.View(), "how are you") || !strings.Contains(m.View(), "You") {
		t.Errorf("view = %q", m.View())
	}
}

func TestModel_BlankInputNotSent(t *testing.T) {
	conv := newFakeConversation()
	m := live(t, conv, nil)
	m = typeText(m, "   ")
	m = pressEnter(t, m)
	if len(conv.sent) != 0 {
		t.Errorf("sent = %v, want nothing", conv.sent)
	}
}

func TestModel_ProductAttachedOnce(t *testing.T) {
	conv := newFakeConversation()
	product := &internal.Product{SellableID: "31", Name: "Tamales", Price: 45}
	m := live(t, conv, product)
	if !strings.Contains(m.View(), "Attached: Tamales ₱45.00") {
		t.Errorf("view = %q", m.View())
	}

	m = pressEnter(t, m)
	m = typeText(m, "second")
	m = pressEnter(t, m)

	if len(conv.products) != 2 || conv.products[0] == nil || conv.products[1] != nil {
		t.Errorf("products = %+v, want only the first message to carry the item", conv.products)
	}
	if strings.Contains(m.View(), "Attached:") {
		t.Error("attachment should clear after a successful send")
	}
}

func TestModel_SendError(t *testing.T) {
	conv := newFakeConversation()
	conv.sendErr = errors.New("rejected")
	m := live(t, conv, nil)
	m = typeText(m, "hi")
	m = pressEnter(t, m)
	if !strings.Contains(m.View(), "Send failed: rejected") {
		t.Errorf("view = %q", m.View())
	}
}

func TestModel_ChangeRefreshes(t *testing.T) {
	conv := newFakeConversation()
	m := live(t, conv, nil)
	conv.messages = append(conv.messages, internal.Message{SenderID: "2", ReceiverID: "1", Body: "pushed"})

	model, cmd := m.Update(changedMsg{})
	m = model.(Model)
	if cmd == nil {
		t.Error("a change should re-arm the watcher")
	}
	if !strings.Contains(m.View(), "pushed") {
		t.Errorf("view = %q", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m := live(t, newFakeConversation(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Esc should produce a QuitMsg")
	}
}

func TestRender(t *testing.T) {
	out := Render([]internal.Message{
		{SenderID: "1", ReceiverID: "2", Body: "hi"},
		{SenderID: "2", ReceiverID: "1", Product: &internal.Product{Name: "Taho", Price: 20}},
	}, "1", 0)
	for _, want := range []string{"You", "hi", "User 2", "Item: Taho ₱20.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in %q", want, out)
		}
	}
}
