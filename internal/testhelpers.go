package internal

import (
	"time"
)

// CreateTestMessage creates a persisted-looking message between two users
func CreateTestMessage(id, senderID, receiverID ID, body string, at time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  at,
	}
}

// CreateTestTranscript creates a transcript with sample messages, one of
// which carries a product
func CreateTestTranscript(senderID, receiverID ID) *Transcript {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Transcript{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ExportedAt: base.Add(time.Hour),
		Messages: []Message{
			CreateTestMessage("1", senderID, receiverID, "Hola, are you open today?", base),
			{
				ID:         "2",
				SenderID:   receiverID,
				ReceiverID: senderID,
				Body:       "Yes, until 6pm",
				Product:    &Product{SellableID: "31", Name: "Tamales", Price: 45},
				Timestamp:  base.Add(2 * time.Minute),
			},
		},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(senderID, receiverID ID, messages []Message) *Transcript {
	return &Transcript{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ExportedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Messages:   messages,
	}
}
