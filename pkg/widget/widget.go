// Package widget implements the visitor side of the showroom support chat: a
// collapsible widget that collects the visitor's name and phone once, then
// carries the conversation.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/locale"
	"github.com/City-Bureau/showroomchat/pkg/settings"
)

type State string

const (
	Closed       State = "closed"
	IntakeForm   State = "intake_form"
	Conversation State = "conversation"
)

var (
	// ErrIncompleteIntake is returned when name or phone is blank
	ErrIncompleteIntake = errors.New("widget: name and phone are required")
	// ErrEmptyMessage is returned when a message is blank
	ErrEmptyMessage = errors.New("widget: message is empty")
	// ErrWrongState is returned when an action doesn't apply to the current state
	ErrWrongState = errors.New("widget: action not available in current state")
)

// Options configures a Widget. Zero values are replaced with defaults.
type Options struct {
	Source    chat.SessionSource
	Settings  settings.Provider
	Notifier  chat.Notifier
	Localizer *i18n.Localizer
	Logger    *slog.Logger
	Now       func() time.Time
	// OnUpdate is called after a poll tick refreshes the local session
	OnUpdate func(chat.Session)
}

// Widget is the visitor role. All methods are safe for concurrent use; poll
// callbacks and user actions are serialized.
type Widget struct {
	store     *chat.Store
	source    chat.SessionSource
	settings  settings.Provider
	notifier  chat.Notifier
	localizer *i18n.Localizer
	logger    *slog.Logger
	now       func() time.Time
	onUpdate  func(chat.Session)

	mu      sync.Mutex
	state   State
	session *chat.Session
	stop    func()
}

// New creates a closed widget and resumes the visitor's remembered session if
// it is still in the store
func New(store *chat.Store, opts Options) *Widget {
	w := &Widget{
		store:     store,
		source:    opts.Source,
		settings:  opts.Settings,
		notifier:  opts.Notifier,
		localizer: opts.Localizer,
		logger:    opts.Logger,
		now:       opts.Now,
		onUpdate:  opts.OnUpdate,
		state:     Closed,
	}
	if w.source == nil {
		w.source = chat.NewPollingSource(store, chat.DefaultPollInterval)
	}
	if w.settings == nil {
		w.settings = settings.Static(settings.Defaults().SiteName)
	}
	if w.notifier == nil {
		w.notifier = chat.NopNotifier{}
	}
	if w.localizer == nil {
		w.localizer = locale.LoadLocalizer(locale.DefaultLanguage)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.now == nil {
		w.now = time.Now
	}
	w.session = w.resolveSession(store.LoadSessions())
	return w
}

// resolveSession finds the current-session pointer's target in sessions
func (w *Widget) resolveSession(sessions []chat.Session) *chat.Session {
	id, ok := w.store.CurrentSessionID()
	if !ok {
		return nil
	}
	idx := chat.FindSession(sessions, id)
	if idx < 0 {
		w.logger.Info("widget: remembered session no longer stored", "session_id", id)
		return nil
	}
	session := sessions[idx]
	return &session
}

// State returns the widget's current state
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Toggle opens a closed widget and closes an open one
func (w *Widget) Toggle() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Closed {
		w.open()
	} else {
		w.state = Closed
	}
	return w.state
}

// Open shows the widget, resuming the remembered session or asking for intake
func (w *Widget) Open() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Closed {
		w.open()
	}
	return w.state
}

// Close collapses the widget back to its toggle
func (w *Widget) Close() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Closed
	return w.state
}

func (w *Widget) open() {
	w.session = w.resolveSession(w.store.LoadSessions())
	if w.session != nil {
		w.state = Conversation
	} else {
		w.state = IntakeForm
	}
}

// StartChat creates the visitor's session from the intake form. If only the
// current-session pointer fails to save, the widget still enters
// Conversation and the error is returned with the new session.
func (w *Widget) StartChat(name, phone string) (chat.Session, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != IntakeForm {
		return chat.Session{}, ErrWrongState
	}
	if name == "" || phone == "" {
		return chat.Session{}, ErrIncompleteIntake
	}

	now := w.now().UTC()
	session := chat.NewSession(name, phone, now)
	greeting := chat.NewMessage(
		locale.Text(w.localizer, "greeting", map[string]interface{}{"Name": name}),
		chat.SenderAdmin,
		now,
	)
	greeting.Read = true
	session.Append(greeting)

	err := w.store.Update(func(sessions []chat.Session) ([]chat.Session, error) {
		return append(sessions, session), nil
	})
	if err != nil {
		return chat.Session{}, err
	}

	// The session is stored, so the widget carries it even if the pointer
	// write below fails
	w.session = &session
	w.state = Conversation
	w.logger.Info("widget: chat started", "session_id", session.ID)
	w.notify(chat.NewEvent(chat.EventSessionStarted, session, "", now))

	if err := w.store.SetCurrentSessionID(session.ID); err != nil {
		return session.Clone(), err
	}
	return session.Clone(), nil
}

// Send appends a visitor message to the current session
func (w *Widget) Send(text string) (chat.Message, error) {
	text = strings.TrimSpace(text)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Conversation || w.session == nil {
		return chat.Message{}, ErrWrongState
	}
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	now := w.now().UTC()
	message := chat.NewMessage(text, chat.SenderVisitor, now)
	id := w.session.ID

	var updated chat.Session
	err := w.store.Update(func(sessions []chat.Session) ([]chat.Session, error) {
		idx := chat.FindSession(sessions, id)
		if idx < 0 {
			// The stored copy vanished; write ours back rather than drop the message
			sessions = append(sessions, w.session.Clone())
			idx = len(sessions) - 1
		}
		sessions[idx].Append(message)
		updated = sessions[idx].Clone()
		return sessions, nil
	})
	if err != nil {
		return chat.Message{}, err
	}

	w.session = &updated
	w.notify(chat.NewEvent(chat.EventVisitorMessage, updated, text, now))
	return message, nil
}

// Refresh replaces the local session with the stored copy, as one poll tick
func (w *Widget) Refresh() {
	w.apply(w.store.LoadSessions())
}

func (w *Widget) apply(sessions []chat.Session) {
	w.mu.Lock()
	if w.session == nil {
		w.mu.Unlock()
		return
	}
	idx := chat.FindSession(sessions, w.session.ID)
	if idx < 0 {
		w.mu.Unlock()
		return
	}
	session := sessions[idx]
	w.session = &session
	w.mu.Unlock()

	if w.onUpdate != nil {
		w.onUpdate(session.Clone())
	}
}

// Start subscribes the widget to its session source. Calling Start on a
// started widget does nothing.
func (w *Widget) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stop = w.source.Subscribe(ctx, w.apply)
}

// Stop ends the subscription and waits for any in-flight refresh
func (w *Widget) Stop() {
	w.mu.Lock()
	stop := w.stop
	w.stop = nil
	w.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Session returns a copy of the visitor's session, if one is established
func (w *Widget) Session() (chat.Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return chat.Session{}, false
	}
	return w.session.Clone(), true
}

// UnreadCount is the number of staff messages not yet marked read
func (w *Widget) UnreadCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return 0
	}
	return w.session.UnreadFrom(chat.SenderAdmin)
}

// Badge is the count shown on the closed toggle; an open widget shows none
func (w *Widget) Badge() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Closed || w.session == nil {
		return 0
	}
	return w.session.UnreadFrom(chat.SenderAdmin)
}

// Header returns the site name and tagline shown above the conversation
func (w *Widget) Header() (string, string) {
	return w.settings.SiteName(), locale.Text(w.localizer, "tagline", nil)
}

// Prompt returns the hint shown for the current state
func (w *Widget) Prompt() string {
	switch w.State() {
	case IntakeForm:
		return locale.Text(w.localizer, "intake-prompt", nil)
	case Conversation:
		return locale.Text(w.localizer, "message-placeholder", nil)
	default:
		return ""
	}
}

func (w *Widget) notify(event chat.Event) {
	if err := w.notifier.Notify(event); err != nil {
		w.logger.Warn("widget: notify", "type", event.Type, "session_id", event.SessionID, "error", err)
	}
}
