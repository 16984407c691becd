package chat

import (
	"testing"
	"time"
)

func TestSessionAppendKeepsLastMessageMonotonic(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	session := NewSession("Sara", "0550000000", start)

	session.Append(NewMessage("later", SenderVisitor, start.Add(time.Minute)))
	if !session.LastMessageAt.Equal(start.Add(time.Minute)) {
		t.Errorf("LastMessageAt not moved forward: %v", session.LastMessageAt)
	}
	session.Append(NewMessage("skewed clock", SenderAdmin, start))
	if !session.LastMessageAt.Equal(start.Add(time.Minute)) {
		t.Errorf("LastMessageAt moved backwards: %v", session.LastMessageAt)
	}
	if len(session.Messages) != 2 || session.Messages[1].Text != "skewed clock" {
		t.Errorf("Messages not appended in order: %+v", session.Messages)
	}
}

func TestSessionUnreadCounts(t *testing.T) {
	session := Session{Messages: []Message{
		{Sender: SenderAdmin, Read: true},
		{Sender: SenderAdmin, Read: false},
		{Sender: SenderVisitor, Read: false},
		{Sender: SenderAdmin, Read: false},
	}}
	if got := session.UnreadFrom(SenderAdmin); got != 2 {
		t.Errorf("Admin unread = %d, want 2", got)
	}
	if got := session.UnreadFrom(SenderVisitor); got != 1 {
		t.Errorf("Visitor unread = %d, want 1", got)
	}

	if changed := session.MarkRead(SenderVisitor); changed != 1 {
		t.Errorf("MarkRead changed %d, want 1", changed)
	}
	if got := session.UnreadFrom(SenderVisitor); got != 0 {
		t.Errorf("Visitor unread after MarkRead = %d, want 0", got)
	}
	if got := session.UnreadFrom(SenderAdmin); got != 2 {
		t.Errorf("Admin unread changed by visitor MarkRead: %d", got)
	}
	if changed := session.MarkRead(SenderVisitor); changed != 0 {
		t.Errorf("Second MarkRead changed %d, want 0", changed)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	session := NewSession("Sara", "0550000000", time.Now())
	session.Append(NewMessage("hello", SenderVisitor, time.Now()))
	clone := session.Clone()
	clone.MarkRead(SenderVisitor)
	if session.Messages[0].Read {
		t.Errorf("Clone shares messages with original")
	}
}

func TestLastMessageEmpty(t *testing.T) {
	if _, ok := (Session{}).LastMessage(); ok {
		t.Errorf("Empty session reported a last message")
	}
}

func TestFindSession(t *testing.T) {
	sessions := []Session{{ID: "a"}, {ID: "b"}}
	if idx := FindSession(sessions, "b"); idx != 1 {
		t.Errorf("FindSession(b) = %d", idx)
	}
	if idx := FindSession(sessions, "c"); idx != -1 {
		t.Errorf("FindSession(c) = %d", idx)
	}
}
