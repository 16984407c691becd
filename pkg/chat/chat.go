// Package chat holds the visitor support chat data model, the persisted
// session collection, and the polling source both chat roles subscribe to.
package chat

import "time"

// Session is one visitor's conversation thread
type Session struct {
	ID            string    `json:"id"`
	VisitorName   string    `json:"visitorName"`
	VisitorPhone  string    `json:"visitorPhone"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	IsActive      bool      `json:"isActive"`
}

// NewSession creates an active session with no messages
func NewSession(name, phone string, at time.Time) Session {
	return Session{
		ID:            NewID(),
		VisitorName:   name,
		VisitorPhone:  phone,
		Messages:      []Message{},
		CreatedAt:     at,
		LastMessageAt: at,
		IsActive:      true,
	}
}

// Append adds a message to the end of the thread. LastMessageAt never moves
// backwards, even if the message timestamp is older.
func (s *Session) Append(message Message) {
	s.Messages = append(s.Messages, message)
	if message.Timestamp.After(s.LastMessageAt) {
		s.LastMessageAt = message.Timestamp
	}
}

// UnreadFrom counts unread messages authored by sender
func (s Session) UnreadFrom(sender Sender) int {
	count := 0
	for _, m := range s.Messages {
		if m.Sender == sender && !m.Read {
			count++
		}
	}
	return count
}

// MarkRead flags every message from sender as read and reports how many changed
func (s *Session) MarkRead(sender Sender) int {
	changed := 0
	for i := range s.Messages {
		if s.Messages[i].Sender == sender && !s.Messages[i].Read {
			s.Messages[i].Read = true
			changed++
		}
	}
	return changed
}

// LastMessage returns the most recent message, if any
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a copy that shares no message storage with s
func (s Session) Clone() Session {
	clone := s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	return clone
}

// FindSession returns the index of the session with id, or -1
func FindSession(sessions []Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
