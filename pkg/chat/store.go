package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/City-Bureau/showroomchat/pkg/storage"
)

// Storage keys for the persisted chat data
const (
	SessionsKey       = "chat_sessions"
	CurrentSessionKey = "chat_current_session"
)

// Store is the single source of truth for chat sessions. Every write replaces
// the whole collection.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore creates a Store on kv. A nil logger falls back to slog.Default.
func NewStore(kv storage.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// ErrCorruptSessions wraps a decode failure of the stored collection
var ErrCorruptSessions = errors.New("chat: stored sessions are corrupt")

// LoadSessions returns every stored session in stored order. Missing or
// undecodable data reads as no sessions.
func (s *Store) LoadSessions() []Session {
	sessions, err := s.load()
	if err != nil {
		s.logger.Warn("chat: load sessions", "error", err)
		return []Session{}
	}
	return sessions
}

// load reads the stored collection. Unlike LoadSessions it reports storage
// and decode failures, so writers never build on a collection they could not
// read.
func (s *Store) load() ([]Session, error) {
	raw, err := s.kv.Get(SessionsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat: read sessions: %w", err)
	}
	sessions, err := decodeSessions(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSessions, err)
	}
	return sessions, nil
}

// SaveSessions overwrites the stored collection with sessions
func (s *Store) SaveSessions(sessions []Session) error {
	if sessions == nil {
		sessions = []Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("chat: encode sessions: %w", err)
	}
	if err := s.kv.Set(SessionsKey, string(data)); err != nil {
		return fmt.Errorf("chat: save sessions: %w", err)
	}
	return nil
}

// Update runs a read-modify-write cycle on the full collection. Callers in
// the same process are serialized; separate processes still race and the last
// writer wins. Nothing is written if the collection can't be read or decoded,
// or if fn returns an error.
func (s *Store) Update(fn func([]Session) ([]Session, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return err
	}
	sessions, err := fn(current)
	if err != nil {
		return err
	}
	return s.SaveSessions(sessions)
}

// CurrentSessionID returns the visitor's remembered session, if any
func (s *Store) CurrentSessionID() (string, bool) {
	id, err := s.kv.Get(CurrentSessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("chat: load current session", "error", err)
		}
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	return id, true
}

// SetCurrentSessionID remembers the visitor's session
func (s *Store) SetCurrentSessionID(id string) error {
	if err := s.kv.Set(CurrentSessionKey, id); err != nil {
		return fmt.Errorf("chat: save current session: %w", err)
	}
	return nil
}

func decodeSessions(raw string) ([]Session, error) {
	sessions := []Session{}
	if strings.TrimSpace(raw) == "" {
		return sessions, nil
	}
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Messages == nil {
			sessions[i].Messages = []Message{}
		}
	}
	return sessions, nil
}
