package chat

import "time"

// Sender identifies which side of a chat authored a message
type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderAdmin   Sender = "admin"
)

// Message is a single message exchanged in a Session. Once appended only Read
// may change, and only from false to true.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewMessage creates an unread message with a fresh ID
func NewMessage(text string, sender Sender, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Text:      text,
		Sender:    sender,
		Timestamp: at,
		Read:      false,
	}
}
