package api

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/testutil"
)

func TestClient_ChatHistory(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[
		{"id":2,"senderId":2,"receiverId":1,"message":"second","timestamp":"2024-03-01T10:05:00Z"},
		{"id":1,"senderId":1,"receiverId":2,"message":"first","timestamp":"2024-03-01T10:00:00Z"},
		{"id":3,"senderId":"1","receiverId":"2","message":"third","timestamp":"2024-03-01T10:05:00Z"}
	]`)
	client := New(srv.URL, &memoryStore{session: internal.Session{Token: "t", UserID: "1"}})

	history, err := client.ChatHistory(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if (*calls)[0].path != "/chats/1/2" {
		t.Errorf("path = %q", (*calls)[0].path)
	}
	var bodies []string
	for _, m := range history {
		bodies = append(bodies, m.Body)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if bodies[i] != want[i] {
			t.Fatalf("order = %v, want %v", bodies, want)
		}
	}
	if history[0].SenderID != "1" || history[1].SenderID != "2" {
		t.Errorf("numeric ids should decode to strings: %+v", history)
	}
}

func TestClient_ChatHistoryRepeatable(t *testing.T) {
	backend := testutil.NewFakeBackend(t, testutil.FakeUser{ID: "1"}, testutil.FakeUser{ID: "2"})
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	backend.SeedAt("1", "2", "same time, sent first", at)
	backend.SeedAt("2", "1", "same time, sent second", at)
	backend.SeedAt("1", "2", "earlier", at.Add(-time.Minute))
	backend.SeedAt("1", "3", "other conversation", at)

	client := New(backend.APIURL(), &memoryStore{session: internal.Session{Token: backend.Token("1"), UserID: "1"}})
	first, err := client.ChatHistory(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	second, err := client.ChatHistory(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("second ChatHistory() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ChatHistory() changed between calls:\n%+v\n%+v", first, second)
	}

	var got []string
	for _, m := range first {
		got = append(got, m.Body)
	}
	want := []string{"earlier", "same time, sent first", "same time, sent second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestClient_SendChat(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusCreated,
		`{"id":77,"senderId":1,"receiverId":2,"message":"hi","timestamp":"2024-03-01T10:00:00Z"}`)
	client := New(srv.URL, &memoryStore{})

	draft := internal.Message{
		SenderID:   "1",
		ReceiverID: "2",
		Body:       "hi",
		Product:    &internal.Product{SellableID: "31", Name: "Tamales", Price: 45},
		Timestamp:  time.Now(),
	}
	record, err := client.SendChat(context.Background(), draft)
	if err != nil {
		t.Fatalf("SendChat() error = %v", err)
	}
	if record.ID != "77" {
		t.Errorf("record.ID = %q, want server id", record.ID)
	}
	if !record.Timestamp.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("record.Timestamp = %v, want server timestamp", record.Timestamp)
	}
	if record.Product == nil || record.Product.Name != "Tamales" {
		t.Errorf("product should be carried from the draft, got %+v", record.Product)
	}

	var body map[string]interface{}
	if err := json.Unmarshal((*calls)[0].body, &body); err != nil {
		t.Fatal(err)
	}
	if body["senderId"] != float64(1) || body["receiverId"] != float64(2) || body["message"] != "hi" {
		t.Errorf("send body = %v", body)
	}
	if _, ok := body["timestamp"]; ok {
		t.Error("the client must not send a timestamp")
	}
}

func TestClient_SendChatSparseReply(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"id":"abc"}`)
	client := New(srv.URL, &memoryStore{})

	sent := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	record, err := client.SendChat(context.Background(), internal.Message{SenderID: "1", ReceiverID: "2", Body: "hello", Timestamp: sent})
	if err != nil {
		t.Fatalf("SendChat() error = %v", err)
	}
	if record.ID != "abc" || record.SenderID != "1" || record.ReceiverID != "2" || record.Body != "hello" || !record.Timestamp.Equal(sent) {
		t.Errorf("record = %+v, want draft fields filled in", record)
	}
}

func TestClient_UnreadChats(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK,
		`[{"chatId":9,"senderId":4,"sender":{"first_name":"Ana"},"message":"available?"}]`)
	client := New(srv.URL, &memoryStore{session: internal.Session{Token: "t", UserID: "1"}})

	items, err := client.UnreadChats(context.Background(), "5")
	if err != nil {
		t.Fatalf("UnreadChats() error = %v", err)
	}
	if (*calls)[0].path != "/chats/unread/5" {
		t.Errorf("path = %q", (*calls)[0].path)
	}
	if len(items) != 1 || items[0].ChatID != "9" || items[0].Sender.DisplayName() != "Ana" || items[0].Message != "available?" {
		t.Errorf("items = %+v", items)
	}
}
