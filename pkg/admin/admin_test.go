package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/mocks"
	"github.com/City-Bureau/showroomchat/pkg/storage"
	"github.com/City-Bureau/showroomchat/pkg/widget"
)

type manualSource struct {
	fn func([]chat.Session)
}

func (m *manualSource) Subscribe(ctx context.Context, fn func([]chat.Session)) func() {
	m.fn = fn
	return func() {}
}

func seedSessions(t *testing.T, store *chat.Store) []chat.Session {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := chat.NewSession("Older", "0500000001", base)
	older.Append(chat.NewMessage("first", chat.SenderVisitor, base.Add(time.Minute)))
	newer := chat.NewSession("Newer", "0500000002", base)
	newer.Append(chat.NewMessage("hello", chat.SenderVisitor, base.Add(2*time.Minute)))
	newer.Append(chat.NewMessage("anyone?", chat.SenderVisitor, base.Add(3*time.Minute)))
	sessions := []chat.Session{older, newer}
	require.NoError(t, store.SaveSessions(sessions))
	return sessions
}

func TestListSessionsEmpty(t *testing.T) {
	panel := New(chat.NewStore(storage.NewMemoryKV(), nil), Options{Source: &manualSource{}})
	assert.Len(t, panel.ListSessions(), 0)
	_, state := panel.Detail()
	assert.Equal(t, DetailNone, state)
}

func TestListSessionsSortedByActivity(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	seeded := seedSessions(t, store)
	panel := New(store, Options{Source: &manualSource{}})

	list := panel.ListSessions()
	require.Len(t, list, 2)
	assert.Equal(t, seeded[1].ID, list[0].Session.ID)
	assert.Equal(t, 2, list[0].Unread)
	assert.Equal(t, "anyone?", list[0].Preview)
	assert.Equal(t, seeded[0].ID, list[1].Session.ID)
	assert.Equal(t, 1, list[1].Unread)

	// Listing doesn't reorder the stored collection
	stored := store.LoadSessions()
	assert.Equal(t, seeded[0].ID, stored[0].ID)
}

func TestSelectMarksVisitorMessagesRead(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	session := chat.Session{ID: "s1", Messages: []chat.Message{
		{ID: "1", Sender: chat.SenderAdmin, Read: true},
		{ID: "2", Sender: chat.SenderAdmin, Read: false},
		{ID: "3", Sender: chat.SenderVisitor, Read: false},
		{ID: "4", Sender: chat.SenderAdmin, Read: false},
	}}
	require.NoError(t, store.SaveSessions([]chat.Session{session}))
	panel := New(store, Options{Source: &manualSource{}})
	assert.Equal(t, 1, panel.ListSessions()[0].Unread)

	selected, err := panel.Select("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, selected.UnreadFrom(chat.SenderVisitor))
	assert.Equal(t, 2, selected.UnreadFrom(chat.SenderAdmin))
	assert.Equal(t, 0, panel.ListSessions()[0].Unread)

	stored := store.LoadSessions()[0]
	assert.Equal(t, 0, stored.UnreadFrom(chat.SenderVisitor))
	assert.Equal(t, 2, stored.UnreadFrom(chat.SenderAdmin))

	detail, state := panel.Detail()
	assert.Equal(t, DetailOpen, state)
	assert.Equal(t, "s1", detail.ID)
}

func TestSelectUnknownSession(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	seedSessions(t, store)
	panel := New(store, Options{Source: &manualSource{}})
	_, err := panel.Select("missing")
	assert.Equal(t, ErrSessionNotFound, err)
	_, state := panel.Detail()
	assert.Equal(t, DetailNone, state)
}

func TestReply(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	seeded := seedSessions(t, store)
	now := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	panel := New(store, Options{Source: &manualSource{}, Now: func() time.Time { return now }})

	_, err := panel.Reply("hello")
	assert.Equal(t, ErrNoSelection, err)

	_, err = panel.Select(seeded[0].ID)
	require.NoError(t, err)
	_, err = panel.Reply("  ")
	assert.Equal(t, ErrEmptyMessage, err)

	message, err := panel.Reply(" 4500 ريال ")
	require.NoError(t, err)
	assert.Equal(t, "4500 ريال", message.Text)
	assert.Equal(t, chat.SenderAdmin, message.Sender)
	assert.False(t, message.Read)

	idx := chat.FindSession(store.LoadSessions(), seeded[0].ID)
	stored := store.LoadSessions()[idx]
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, message.ID, stored.Messages[1].ID)
	assert.True(t, stored.LastMessageAt.Equal(now))

	// The replied-to session is now the most recently active
	assert.Equal(t, seeded[0].ID, panel.ListSessions()[0].Session.ID)
}

func TestRefreshWithVanishedSelection(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	seeded := seedSessions(t, store)
	panel := New(store, Options{Source: &manualSource{}})
	_, err := panel.Select(seeded[1].ID)
	require.NoError(t, err)

	require.NoError(t, store.SaveSessions(seeded[:1]))
	panel.Refresh()

	_, state := panel.Detail()
	assert.Equal(t, DetailStale, state)
	_, err = panel.Reply("still there?")
	assert.Equal(t, ErrNoSelection, err)
	assert.Len(t, panel.ListSessions(), 1)
}

func TestPollTickDoesNotAutoMarkRead(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	seeded := seedSessions(t, store)
	source := &manualSource{}
	panel := New(store, Options{Source: source})
	panel.Start(context.Background())
	defer panel.Stop()

	_, err := panel.Select(seeded[0].ID)
	require.NoError(t, err)

	require.NoError(t, store.Update(func(sessions []chat.Session) ([]chat.Session, error) {
		idx := chat.FindSession(sessions, seeded[0].ID)
		sessions[idx].Append(chat.NewMessage("new one", chat.SenderVisitor, time.Now()))
		return sessions, nil
	}))
	source.fn(store.LoadSessions())

	detail, state := panel.Detail()
	require.Equal(t, DetailOpen, state)
	assert.Len(t, detail.Messages, 2)
	for _, summary := range panel.ListSessions() {
		if summary.Session.ID == seeded[0].ID {
			assert.Equal(t, 1, summary.Unread)
		}
	}
}

func TestReplySyncScenario(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	visitorSource := &manualSource{}
	visitor := widget.New(store, widget.Options{Source: visitorSource})
	visitor.Open()
	session, err := visitor.StartChat("Sara", "0550000000")
	require.NoError(t, err)
	visitor.Start(context.Background())
	defer visitor.Stop()

	adminSource := &manualSource{}
	panel := New(store, Options{Source: adminSource})
	panel.Start(context.Background())
	defer panel.Stop()

	_, err = visitor.Send("السعر؟")
	require.NoError(t, err)

	adminSource.fn(store.LoadSessions())
	list := panel.ListSessions()
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Unread)

	_, err = panel.Select(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, panel.ListSessions()[0].Unread)
	_, err = panel.Reply("4500 ريال")
	require.NoError(t, err)

	visitorSource.fn(store.LoadSessions())
	current, ok := visitor.Session()
	require.True(t, ok)
	// greeting, visitor question, admin reply
	require.Len(t, current.Messages, 3)
	visitorAuthored := current.Messages[1:]
	assert.Equal(t, chat.SenderVisitor, visitorAuthored[0].Sender)
	assert.Equal(t, chat.SenderAdmin, visitorAuthored[1].Sender)
	assert.Equal(t, "4500 ريال", visitorAuthored[1].Text)
	assert.Equal(t, 1, visitor.UnreadCount())

	visitor.Close()
	assert.Equal(t, 1, visitor.Badge())
	visitor.Open()
	assert.Equal(t, 0, visitor.Badge())
	assert.Equal(t, 1, visitor.UnreadCount())
}

func TestAppendOnlyAndReadMonotonic(t *testing.T) {
	store := chat.NewStore(storage.NewMemoryKV(), nil)
	visitor := widget.New(store, widget.Options{Source: &manualSource{}})
	visitor.Open()
	session, err := visitor.StartChat("Sara", "0550000000")
	require.NoError(t, err)
	panel := New(store, Options{Source: &manualSource{}})

	snapshot := func() []chat.Message {
		return store.LoadSessions()[chat.FindSession(store.LoadSessions(), session.ID)].Messages
	}
	previous := snapshot()
	steps := []func(){
		func() { _, _ = visitor.Send("one") },
		func() { _, _ = panel.Select(session.ID) },
		func() { _, _ = panel.Reply("two") },
		func() { _, _ = visitor.Send("three") },
		func() { panel.Refresh() },
		func() { _, _ = panel.Select(session.ID) },
		func() { visitor.Refresh() },
	}
	for i, step := range steps {
		step()
		current := snapshot()
		require.GreaterOrEqual(t, len(current), len(previous), "step %d shrank messages", i)
		for j, before := range previous {
			after := current[j]
			assert.Equal(t, before.ID, after.ID)
			assert.Equal(t, before.Text, after.Text)
			assert.Equal(t, before.Sender, after.Sender)
			assert.True(t, before.Timestamp.Equal(after.Timestamp))
			if before.Read {
				assert.True(t, after.Read, "step %d un-read message %s", i, after.ID)
			}
		}
		previous = current
	}
}

func TestSelectAndReplyReadErrors(t *testing.T) {
	kv := mocks.NewFlakyKV(storage.NewMemoryKV())
	store := chat.NewStore(kv, nil)
	seeded := seedSessions(t, store)
	panel := New(store, Options{Source: &manualSource{}})

	kv.FailNextGet(chat.SessionsKey, errors.New("connection reset"))
	if _, err := panel.Select(seeded[1].ID); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Select should report the storage error, got %v", err)
	}
	if _, state := panel.Detail(); state != DetailNone {
		t.Errorf("Detail state after failed select = %s, want %s", state, DetailNone)
	}
	stored := store.LoadSessions()
	if got := stored[chat.FindSession(stored, seeded[1].ID)].UnreadFrom(chat.SenderVisitor); got != 2 {
		t.Errorf("Failed select marked messages read: unread %d, want 2", got)
	}

	if _, err := panel.Select(seeded[1].ID); err != nil {
		t.Fatalf("Select after recovery: %v", err)
	}
	kv.FailNextGet(chat.SessionsKey, errors.New("connection reset"))
	if _, err := panel.Reply("4500 ريال"); err == nil {
		t.Error("Reply should fail when the store can't be read")
	}
	if _, state := panel.Detail(); state != DetailOpen {
		t.Errorf("Detail state after failed reply = %s, want %s", state, DetailOpen)
	}
	if got := len(store.LoadSessions()); got != 2 {
		t.Errorf("Store shrank: got %d sessions, want 2", got)
	}

	if _, err := panel.Reply("4500 ريال"); err != nil {
		t.Fatalf("Reply after recovery: %v", err)
	}
	session, _ := panel.Detail()
	if len(session.Messages) != 3 {
		t.Errorf("Got %d messages after reply, want 3", len(session.Messages))
	}
}
