package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// FakeUser is an account known to FakeBackend
type FakeUser struct {
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserType  string
}

// FakeMessage is a stored chat message in the backend's wire shape
type FakeMessage struct {
	ID         string          `json:"id"`
	SenderID   string          `json:"senderId"`
	ReceiverID string          `json:"receiverId"`
	Message    string          `json:"message"`
	Product    json.RawMessage `json:"product,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// FakeUpload is a multipart verification submission received by FakeBackend
type FakeUpload struct {
	Path     string
	Fields   map[string]string
	File     string
	FileName string
	Content  string
}

type fakeUnread struct {
	ChatID   string            `json:"chatId"`
	SenderID string            `json:"senderId"`
	Sender   map[string]string `json:"sender"`
	Message  string            `json:"message"`
}

type fakeEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FakeBackend is an in-process chat backend: the REST routes under /api and
// the realtime relay under /ws. The relay forwards every sendMessage frame to
// the receiver's connections as receiveMessage.
type FakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]FakeUser
	messages []FakeMessage
	unread   map[string][]fakeUnread
	conns    map[string][]*fakeConn
	uploads  []FakeUpload
	nextID   int
	now      time.Time

	businesses   string
	echoToSender bool
	failHistory  bool
	failSend     bool
}

// flexID accepts an id sent as a JSON number or string
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	*id = flexID(strings.Trim(string(data), `"`))
	return nil
}

type fakeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *fakeConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewFakeBackend starts a FakeBackend that is shut down when the test ends
func NewFakeBackend(t *testing.T, users ...FakeUser) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		users:      make(map[string]FakeUser),
		unread:     make(map[string][]fakeUnread),
		conns:      make(map[string][]*fakeConn),
		now:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		businesses: "[]",
	}
	for _, u := range users {
		b.users[u.ID] = u
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.handleLogin)
		r.Get("/businesses/", b.handleBusinesses)
		r.Get("/chats/unread/{businessID}", b.handleUnread)
		r.Post("/chats/send", b.handleSend)
		r.Get("/chats/{senderID}/{receiverID}", b.handleHistory)
		r.Post("/users/verify", b.handleUpload("id_image"))
		r.Post("/businesses/verify", b.handleUpload("business_permit"))
	})
	r.Get("/ws", b.handleRealtime)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.shutdown)
	return b
}

// APIURL is the REST root
func (b *FakeBackend) APIURL() string {
	return b.URL + "/api"
}

// WSURL is the realtime endpoint
func (b *FakeBackend) WSURL() string {
	return "ws" + strings.TrimPrefix(b.URL, "http") + "/ws"
}

// SetBusinesses replaces the body served by GET /api/businesses/
func (b *FakeBackend) SetBusinesses(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.businesses = body
}

// SetEchoToSender makes the relay also send a sendMessage back to its sender
func (b *FakeBackend) SetEchoToSender(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoToSender = on
}

// SetFailHistory makes the history route answer 500
func (b *FakeBackend) SetFailHistory(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failHistory = on
}

// SetFailSend makes the send route answer 400
func (b *FakeBackend) SetFailSend(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failSend = on
}

// Token returns the bearer token the backend issues to a user
func (b *FakeBackend) Token(userID string) string {
	return "token-" + userID
}

// Seed stores a message without relaying it
func (b *FakeBackend) Seed(senderID, receiverID, text string) FakeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store(senderID, receiverID, text, nil)
}

// SeedAt stores a message with a fixed timestamp, so tests can build ties
func (b *FakeBackend) SeedAt(senderID, receiverID, text string, at time.Time) FakeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.store(senderID, receiverID, text, nil)
	m.Timestamp = at
	b.messages[len(b.messages)-1] = m
	return m
}

// DropConnections closes every realtime connection of a user from the server
// side, as a crashed or restarted backend would
func (b *FakeBackend) DropConnections(userID string) {
	b.mu.Lock()
	targets := append([]*fakeConn(nil), b.conns[userID]...)
	b.mu.Unlock()
	for _, c := range targets {
		c.conn.Close()
	}
}

// Messages returns every stored message
func (b *FakeBackend) Messages() []FakeMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]FakeMessage(nil), b.messages...)
}

// Uploads returns every verification submission received
func (b *FakeBackend) Uploads() []FakeUpload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]FakeUpload(nil), b.uploads...)
}

// Connections returns the number of open realtime connections for a user
func (b *FakeBackend) Connections(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns[userID])
}

// Push sends a receiveMessage to every connection of the message's receiver,
// as if another client had relayed it
func (b *FakeBackend) Push(m FakeMessage) {
	data, _ := json.Marshal(m)
	b.relay(m.ReceiverID, fakeEnvelope{Event: "receiveMessage", Data: data})
}

func (b *FakeBackend) store(senderID, receiverID, text string, product json.RawMessage) FakeMessage {
	b.nextID++
	m := FakeMessage{
		ID:         fmt.Sprintf("%d", b.nextID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
		Product:    product,
		Timestamp:  b.now.Add(time.Duration(b.nextID) * time.Minute),
	}
	b.messages = append(b.messages, m)

	sender := b.users[senderID]
	b.unread[receiverID] = append(b.unread[receiverID], fakeUnread{
		ChatID:   m.ID,
		SenderID: senderID,
		Sender:   map[string]string{"first_name": sender.FirstName, "last_name": sender.LastName},
		Message:  text,
	})
	return m
}

func (b *FakeBackend) userFromRequest(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	id := strings.TrimPrefix(token, "token-")
	if id == token || id == "" {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.users[id]
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == req.Email && u.Password == req.Password {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message": "Login successful",
				"token":   b.Token(u.ID),
				"user": map[string]string{
					"user_id":    u.ID,
					"first_name": u.FirstName,
					"last_name":  u.LastName,
					"email":      u.Email,
					"user_type":  u.UserType,
				},
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
}

func (b *FakeBackend) handleBusinesses(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	body := b.businesses
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (b *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	a, c := chi.URLParam(r, "senderID"), chi.URLParam(r, "receiverID")

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failHistory {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch chat history"})
		return
	}
	out := []FakeMessage{}
	for _, m := range b.messages {
		if (m.SenderID == a && m.ReceiverID == c) || (m.SenderID == c && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID   flexID          `json:"senderId"`
		ReceiverID flexID          `json:"receiverId"`
		Message    string          `json:"message"`
		Product    json.RawMessage `json:"product,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSend {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Message rejected"})
		return
	}
	m := b.store(string(req.SenderID), string(req.ReceiverID), req.Message, req.Product)
	writeJSON(w, http.StatusCreated, m)
}

func (b *FakeBackend) handleUnread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "businessID")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]fakeUnread{}, b.unread[id]...)
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleUpload(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.userFromRequest(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form"})
			return
		}
		file, header, err := r.FormFile(field)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded"})
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		up := FakeUpload{Path: r.URL.Path, Fields: map[string]string{}, File: field, FileName: header.Filename, Content: string(content)}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				up.Fields[k] = v[0]
			}
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, up)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Verification request submitted successfully"})
	}
}

var upgrader = websocket.Upgrader{}

func (b *FakeBackend) handleRealtime(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.userFromRequest(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fc := &fakeConn{conn: conn}

	b.mu.Lock()
	b.conns[userID] = append(b.conns[userID], fc)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		kept := b.conns[userID][:0]
		for _, c := range b.conns[userID] {
			if c != fc {
				kept = append(kept, c)
			}
		}
		b.conns[userID] = kept
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		var env fakeEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		if env.Event != "sendMessage" {
			continue
		}
		var m struct {
			SenderID   flexID `json:"senderId"`
			ReceiverID flexID `json:"receiverId"`
		}
		if err := json.Unmarshal(env.Data, &m); err != nil {
			continue
		}
		out := fakeEnvelope{Event: "receiveMessage", Data: env.Data}
		b.relay(string(m.ReceiverID), out)
		b.mu.Lock()
		echo := b.echoToSender
		b.mu.Unlock()
		if echo {
			b.relay(string(m.SenderID), out)
		}
	}
}

func (b *FakeBackend) relay(userID string, env fakeEnvelope) {
	b.mu.Lock()
	targets := append([]*fakeConn(nil), b.conns[userID]...)
	b.mu.Unlock()
	for _, c := range targets {
		_ = c.write(env)
	}
}

func (b *FakeBackend) shutdown() {
	b.mu.Lock()
	var all []*fakeConn
	for _, cs := range b.conns {
		all = append(all, cs...)
	}
	b.mu.Unlock()
	for _, c := range all {
		c.conn.Close()
	}
	b.Server.Close()
}
