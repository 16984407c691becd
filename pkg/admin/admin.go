// Package admin implements the staff side of the showroom support chat: a
// session list with unread badges and a detail pane for replying.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/City-Bureau/showroomchat/pkg/chat"
)

var (
	// ErrSessionNotFound is returned when selecting an id that isn't stored
	ErrSessionNotFound = errors.New("admin: session not found")
	// ErrNoSelection is returned when replying without an available session
	ErrNoSelection = errors.New("admin: no session selected")
	// ErrEmptyMessage is returned when a reply is blank
	ErrEmptyMessage = errors.New("admin: reply is empty")
)

// DetailState describes what the detail pane is showing
type DetailState string

const (
	DetailNone  DetailState = "none"
	DetailOpen  DetailState = "open"
	DetailStale DetailState = "stale"
)

// Summary is one row of the session list
type Summary struct {
	Session chat.Session
	Unread  int
	Preview string
}

// Options configures a Panel
type Options struct {
	Source chat.SessionSource
	Logger *slog.Logger
	Now    func() time.Time
	// OnRefresh is called after a poll tick reloads the list
	OnRefresh func()
}

// Panel is the admin role
type Panel struct {
	store     *chat.Store
	source    chat.SessionSource
	logger    *slog.Logger
	now       func() time.Time
	onRefresh func()

	mu         sync.Mutex
	sessions   []chat.Session
	selectedID string
	selected   *chat.Session
	stop       func()
}

// New creates a Panel and loads the current session list
func New(store *chat.Store, opts Options) *Panel {
	p := &Panel{
		store:     store,
		source:    opts.Source,
		logger:    opts.Logger,
		now:       opts.Now,
		onRefresh: opts.OnRefresh,
	}
	if p.source == nil {
		p.source = chat.NewPollingSource(store, chat.DefaultPollInterval)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.apply(store.LoadSessions())
	return p
}

// tick applies a poll result and notifies the OnRefresh hook
func (p *Panel) tick(sessions []chat.Session) {
	p.apply(sessions)
	if p.onRefresh != nil {
		p.onRefresh()
	}
}

// sortByActivity orders sessions most recently active first
func sortByActivity(sessions []chat.Session) {
	sort.SliceStable(sessions, func(a, b int) bool {
		return sessions[a].LastMessageAt.After(sessions[b].LastMessageAt)
	})
}

// apply replaces local state with a freshly loaded collection
func (p *Panel) apply(sessions []chat.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replace(sessions)
}

func (p *Panel) replace(sessions []chat.Session) {
	sorted := make([]chat.Session, len(sessions))
	copy(sorted, sessions)
	sortByActivity(sorted)
	p.sessions = sorted

	if p.selectedID == "" {
		return
	}
	if idx := chat.FindSession(sorted, p.selectedID); idx >= 0 {
		session := sorted[idx].Clone()
		p.selected = &session
	} else {
		if p.selected != nil {
			p.logger.Info("admin: selected session no longer stored", "session_id", p.selectedID)
		}
		p.selected = nil
	}
}

// Refresh reloads the store, as one poll tick
func (p *Panel) Refresh() {
	p.apply(p.store.LoadSessions())
}

// ListSessions returns the session list, most recently active first
func (p *Panel) ListSessions() []Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	summaries := make([]Summary, 0, len(p.sessions))
	for _, s := range p.sessions {
		summary := Summary{
			Session: s.Clone(),
			Unread:  s.UnreadFrom(chat.SenderVisitor),
		}
		if last, ok := s.LastMessage(); ok {
			summary.Preview = last.Text
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Select opens a session in the detail pane and marks its visitor messages read
func (p *Panel) Select(id string) (chat.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var found bool
	var marked int
	err := p.store.Update(func(sessions []chat.Session) ([]chat.Session, error) {
		idx := chat.FindSession(sessions, id)
		if idx < 0 {
			return nil, ErrSessionNotFound
		}
		found = true
		marked = sessions[idx].MarkRead(chat.SenderVisitor)
		return sessions, nil
	})
	if err != nil && !found {
		return chat.Session{}, err
	}

	p.selectedID = id
	p.replace(p.store.LoadSessions())
	if err != nil {
		return chat.Session{}, err
	}
	if p.selected == nil {
		return chat.Session{}, ErrSessionNotFound
	}
	p.logger.Debug("admin: session opened", "session_id", id, "marked_read", marked)
	return p.selected.Clone(), nil
}

// Reply appends a staff message to the selected session
func (p *Panel) Reply(text string) (chat.Message, error) {
	text = strings.TrimSpace(text)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return chat.Message{}, ErrNoSelection
	}
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	message := chat.NewMessage(text, chat.SenderAdmin, p.now().UTC())
	id := p.selectedID
	err := p.store.Update(func(sessions []chat.Session) ([]chat.Session, error) {
		idx := chat.FindSession(sessions, id)
		if idx < 0 {
			return nil, ErrNoSelection
		}
		sessions[idx].Append(message)
		return sessions, nil
	})
	if errors.Is(err, ErrNoSelection) {
		p.selected = nil
		return chat.Message{}, err
	}
	if err != nil {
		return chat.Message{}, err
	}

	p.replace(p.store.LoadSessions())
	p.logger.Info("admin: reply sent", "session_id", id)
	return message, nil
}

// Detail returns the session in the detail pane and whether it is still
// available
func (p *Panel) Detail() (chat.Session, DetailState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.selectedID == "":
		return chat.Session{}, DetailNone
	case p.selected == nil:
		return chat.Session{}, DetailStale
	default:
		return p.selected.Clone(), DetailOpen
	}
}

// Start subscribes the panel to its session source
func (p *Panel) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = p.source.Subscribe(ctx, p.tick)
}

// Stop ends the subscription and waits for any in-flight refresh
func (p *Panel) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}
