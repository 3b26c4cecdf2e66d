package internal

import (
	"fmt"
	"time"
)

// Transcript is a snapshot of one conversation, used for export and caching
type Transcript struct {
	SenderID   ID        `json:"sender_id" yaml:"sender_id"`
	ReceiverID ID        `json:"receiver_id" yaml:"receiver_id"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Messages   []Message `json:"messages" yaml:"messages"`
}

// NewTranscript copies messages into a transcript stamped with the current time
func NewTranscript(senderID, receiverID ID, messages []Message) *Transcript {
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return &Transcript{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ExportedAt: time.Now(),
		Messages:   copied,
	}
}

// Key returns the conversation key of the transcript
func (t *Transcript) Key() string {
	return ConversationKey(t.SenderID, t.ReceiverID)
}

// Title is a human-readable heading for the transcript
func (t *Transcript) Title() string {
	return fmt.Sprintf("Conversation between %s and %s", t.SenderID, t.ReceiverID)
}

// Speaker labels a message relative to the transcript's local user
func (t *Transcript) Speaker(m Message) string {
	if m.SenderID == t.SenderID {
		return "You"
	}
	return "User " + string(m.SenderID)
}
