package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iksnae/trompo-cli/internal"
)

// wsServer is a minimal websocket peer: it records frames the client sends
// and lets the test push frames to the client.
type wsServer struct {
	*httptest.Server
	mu       sync.Mutex
	conn     *websocket.Conn
	received []Envelope
	auth     string
	ready    chan struct{}
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.auth = r.Header.Get("Authorization")
		s.mu.Unlock()
		close(s.ready)
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, env)
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *wsServer) push(t *testing.T, frame string) {
	t.Helper()
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("push failed: %v", err)
	}
}

func (s *wsServer) frames() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Envelope(nil), s.received...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func openChannel(t *testing.T, s *wsServer, opts Options) *Channel {
	t.Helper()
	ch := New(s.wsURL(), opts)
	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestChannel_OpenSendsToken(t *testing.T) {
	s := newWSServer(t)
	openChannel(t, s, Options{Token: "jwt"})
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != "Bearer jwt" {
		t.Errorf("Authorization = %q", s.auth)
	}
}

func TestChannel_OpenTwice(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())
	if err := ch.Open(context.Background()); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open() error = %v, want ErrAlreadyOpen", err)
	}
}

func TestChannel_OpenFailure(t *testing.T) {
	ch := New("ws://127.0.0.1:1/ws", Options{HandshakeTimeout: 200 * time.Millisecond})
	err := ch.Open(context.Background())
	var transportErr *internal.TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("Open() error = %v, want TransportError", err)
	}
}

func TestChannel_Emit(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())

	msg := internal.Message{ID: "7", SenderID: "1", ReceiverID: "2", Body: "hi"}
	if err := ch.Emit(EventSendMessage, msg); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	waitFor(t, func() bool { return len(s.frames()) == 1 })
	frame := s.frames()[0]
	if frame.Event != EventSendMessage {
		t.Errorf("event = %q", frame.Event)
	}
	var got internal.Message
	if err := json.Unmarshal(frame.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "7" || got.Body != "hi" || got.SenderID != "1" {
		t.Errorf("data = %+v", got)
	}
}

func TestChannel_EmitConcurrent(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ch.Emit("ping", map[string]int{"n": 1}); err != nil {
				t.Errorf("Emit() error = %v", err)
			}
		}()
	}
	wg.Wait()
	waitFor(t, func() bool { return len(s.frames()) == 20 })
}

func TestChannel_EmitNotOpen(t *testing.T) {
	ch := New("ws://unused", DefaultOptions())
	if err := ch.Emit(EventSendMessage, "x"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Emit() before Open error = %v", err)
	}
}

func TestChannel_ListenersInOrder(t *testing.T) {
	s := newWSServer(t)
	ch := New(s.wsURL(), DefaultOptions())

	var mu sync.Mutex
	var got []string
	ch.On(EventReceiveMessage, func(data json.RawMessage) {
		var m internal.Message
		_ = json.Unmarshal(data, &m)
		mu.Lock()
		got = append(got, m.Body)
		mu.Unlock()
	})
	if err := ch.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	for _, body := range []string{"a", "b", "c", "d", "e"} {
		s.push(t, `{"event":"receiveMessage","data":{"senderId":2,"receiverId":1,"message":"`+body+`"}}`)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	})
	if strings.Join(got, "") != "abcde" {
		t.Errorf("delivery order = %v", got)
	}
}

func TestChannel_MultipleListenersAndOff(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())

	var mu sync.Mutex
	counts := map[string]int{}
	offA := ch.On("evt", func(json.RawMessage) { mu.Lock(); counts["a"]++; mu.Unlock() })
	ch.On("evt", func(json.RawMessage) { mu.Lock(); counts["b"]++; mu.Unlock() })
	if ch.ListenerCount("evt") != 2 {
		t.Fatalf("ListenerCount() = %d", ch.ListenerCount("evt"))
	}

	s.push(t, `{"event":"evt","data":1}`)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return counts["b"] == 1 })

	offA()
	offA()
	if ch.ListenerCount("evt") != 1 {
		t.Fatalf("ListenerCount() after off = %d", ch.ListenerCount("evt"))
	}

	s.push(t, `{"event":"evt","data":2}`)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return counts["b"] == 2 })

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 1 {
		t.Errorf("deregistered listener ran %d times, want 1", counts["a"])
	}
}

func TestChannel_MalformedFramesSkipped(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())

	received := make(chan string, 2)
	ch.On("evt", func(data json.RawMessage) { received <- string(data) })

	s.push(t, `not json`)
	s.push(t, `{"data":"no event"}`)
	s.push(t, `{"event":"evt","data":"ok"}`)

	select {
	case got := <-received:
		if got != `"ok"` {
			t.Errorf("data = %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after malformed ones was not delivered")
	}
}

func TestChannel_Close(t *testing.T) {
	s := newWSServer(t)
	ch := New(s.wsURL(), DefaultOptions())
	if err := ch.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := ch.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case <-ch.Done():
	default:
		t.Error("Done() should be closed after Close")
	}
	if ch.Err() != nil {
		t.Errorf("Err() after clean close = %v", ch.Err())
	}
	if err := ch.Emit("evt", 1); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Emit() after Close error = %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestChannel_ServerDrop(t *testing.T) {
	s := newWSServer(t)
	ch := openChannel(t, s, DefaultOptions())

	<-s.ready
	s.mu.Lock()
	s.conn.Close()
	s.mu.Unlock()

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after the server dropped")
	}
	var transportErr *internal.TransportError
	if !errors.As(ch.Err(), &transportErr) {
		t.Errorf("Err() = %v, want TransportError", ch.Err())
	}
}

func TestChannel_Ping(t *testing.T) {
	pinged := make(chan struct{}, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetPingHandler(func(string) error {
			select {
			case pinged <- struct{}{}:
			default:
			}
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ch := New("ws"+strings.TrimPrefix(srv.URL, "http"), Options{PingInterval: 20 * time.Millisecond})
	if err := ch.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive ping received")
	}
}
