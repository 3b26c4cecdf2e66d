package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/iksnae/trompo-cli/internal"
)

type sendChatRequest struct {
	SenderID   internal.ID       `json:"senderId"`
	ReceiverID internal.ID       `json:"receiverId"`
	Message    string            `json:"message"`
	Product    *internal.Product `json:"product,omitempty"`
}

// ChatHistory returns the messages between two users, oldest first
func (c *Client) ChatHistory(ctx context.Context, senderID, receiverID internal.ID) ([]internal.Message, error) {
	if err := requireID("senderId", senderID); err != nil {
		return nil, err
	}
	if err := requireID("receiverId", receiverID); err != nil {
		return nil, err
	}
	var messages oneOrMany[internal.Message]
	err := c.do(ctx, call{
		op:       "fetch chat history",
		fallback: "Failed to fetch chat history.",
		method:   http.MethodGet,
		path:     idPath("/chats/%s/%s", senderID, receiverID),
		out:      &messages,
	})
	if err != nil {
		return nil, err
	}
	// The backend already orders by send time; a stable sort keeps ties as sent.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

// SendChat persists a message and returns the canonical record. Fields the
// backend leaves out of its reply are filled from the draft.
func (c *Client) SendChat(ctx context.Context, draft internal.Message) (internal.Message, error) {
	if err := requireID("senderId", draft.SenderID); err != nil {
		return internal.Message{}, err
	}
	if err := requireID("receiverId", draft.ReceiverID); err != nil {
		return internal.Message{}, err
	}
	var record internal.Message
	err := c.do(ctx, call{
		op:       "send message",
		fallback: "Failed to send message.",
		method:   http.MethodPost,
		path:     "/chats/send",
		body: sendChatRequest{
			SenderID:   draft.SenderID,
			ReceiverID: draft.ReceiverID,
			Message:    draft.Body,
			Product:    draft.Product,
		},
		out: &record,
	})
	if err != nil {
		return internal.Message{}, err
	}
	if record.SenderID == "" {
		record.SenderID = draft.SenderID
	}
	if record.ReceiverID == "" {
		record.ReceiverID = draft.ReceiverID
	}
	if record.Body == "" {
		record.Body = draft.Body
	}
	if record.Product == nil {
		record.Product = draft.Product
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = draft.Timestamp
	}
	return record, nil
}

// UnreadChats returns the unread conversation summaries of a business account
func (c *Client) UnreadChats(ctx context.Context, businessID internal.ID) ([]internal.UnreadSummary, error) {
	if err := requireID("businessId", businessID); err != nil {
		return nil, err
	}
	var out oneOrMany[internal.UnreadSummary]
	err := c.do(ctx, call{
		op:       "fetch unread chats",
		fallback: "Failed to fetch unread chats.",
		method:   http.MethodGet,
		path:     idPath("/chats/unread/%s", businessID),
		out:      &out,
	})
	return out, err
}
