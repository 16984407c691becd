package chat

import "time"

// EventType names something a visitor did that staff may want to hear about
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventVisitorMessage EventType = "visitor_message"
)

// Event is published after a visitor change has been persisted
type Event struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"sessionId"`
	VisitorName  string    `json:"visitorName"`
	VisitorPhone string    `json:"visitorPhone"`
	Text         string    `json:"text,omitempty"`
	At           time.Time `json:"at"`
}

// NewEvent builds an event for session, carrying message text when given
func NewEvent(eventType EventType, session Session, text string, at time.Time) Event {
	return Event{
		Type:         eventType,
		SessionID:    session.ID,
		VisitorName:  session.VisitorName,
		VisitorPhone: session.VisitorPhone,
		Text:         text,
		At:           at,
	}
}

// Notifier delivers chat events outside the store, e.g. to an SNS topic or
// the admin's phone
type Notifier interface {
	Notify(Event) error
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) Notify(Event) error { return nil }
