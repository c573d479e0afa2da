package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"neuralchat/internal/context"
	"neuralchat/internal/logger"
	"neuralchat/internal/storage"
	"neuralchat/internal/testutils"
	"neuralchat/pkg/chattypes"
)

// SessionService owns the session-id to session mapping: creation,
// switching, turn appends, deletion, and the round-trip through the
// persistence store. Every mutation persists immediately so durable state
// never lags memory.
type SessionService struct {
	initialized bool
	ctx         *context.ChatContext
	logger      *log.Logger
}

// NewSessionService creates a new SessionService instance.
func NewSessionService() *SessionService {
	return &SessionService{
		logger: logger.NewStyledLogger("SessionService"),
	}
}

// Name returns the service name "session" for registration.
func (s *SessionService) Name() string {
	return "session"
}

// Initialize loads persisted sessions and guarantees the store invariant:
// at least one session exists and exactly one is current.
func (s *SessionService) Initialize(ctx *context.ChatContext) error {
	s.ctx = ctx
	s.initialized = true

	s.loadAll()

	if s.ctx.SessionCount() == 0 {
		if _, err := s.Create("", chattypes.SentinelTitle); err != nil {
			return fmt.Errorf("failed to bootstrap default session: %w", err)
		}
	}

	current := s.ctx.CurrentSessionID()
	if _, ok := s.ctx.GetSession(current); !ok {
		s.ctx.SetCurrentSessionID(s.ctx.FirstSessionID())
	}

	s.logger.Debug("Session service initialized", "session_count", s.ctx.SessionCount())
	return nil
}

// Create inserts a new session with an empty message list and persists it.
// An empty id is replaced with a generated one; an empty title with the
// sentinel. The new session becomes current when none is selected yet.
func (s *SessionService) Create(id, title string) (*chattypes.Session, error) {
	if !s.initialized {
		return nil, fmt.Errorf("session service not initialized")
	}

	if id == "" {
		id = testutils.GenerateSessionID(s.ctx)
	}
	if title == "" {
		title = chattypes.SentinelTitle
	}
	if _, exists := s.ctx.GetSession(id); exists {
		return nil, fmt.Errorf("session %q already exists", id)
	}

	now := testutils.GetCurrentTime(s.ctx)
	session := &chattypes.Session{
		ID:        id,
		Title:     title,
		Messages:  make([]chattypes.Turn, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.ctx.AddSession(session)
	if s.ctx.CurrentSessionID() == "" {
		s.ctx.SetCurrentSessionID(id)
	}
	s.persistAll()

	s.logger.Debug("Session created", "session_id", id, "title", title)
	return session, nil
}

// CreateNew creates a fresh sentinel-titled session and switches to it.
func (s *SessionService) CreateNew() (*chattypes.Session, error) {
	session, err := s.Create("", chattypes.SentinelTitle)
	if err != nil {
		return nil, err
	}
	if err := s.SwitchTo(session.ID); err != nil {
		return nil, err
	}
	return session, nil
}

// SwitchTo makes the given session current. Message contents are untouched.
func (s *SessionService) SwitchTo(id string) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	if _, ok := s.ctx.GetSession(id); !ok {
		return fmt.Errorf("%w: %s", chattypes.ErrSessionNotFound, id)
	}

	s.ctx.SetCurrentSessionID(id)
	s.persistAll()

	s.logger.Debug("Session switched", "session_id", id)
	return nil
}

// Get returns the session with the given id.
func (s *SessionService) Get(id string) (*chattypes.Session, error) {
	if !s.initialized {
		return nil, fmt.Errorf("session service not initialized")
	}

	session, ok := s.ctx.GetSession(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", chattypes.ErrSessionNotFound, id)
	}
	return session, nil
}

// Current returns the current session.
func (s *SessionService) Current() (*chattypes.Session, error) {
	return s.Get(s.ctx.CurrentSessionID())
}

// List returns all sessions in stable insertion order.
func (s *SessionService) List() []*chattypes.Session {
	if !s.initialized {
		return nil
	}

	ids := s.ctx.SessionIDs()
	sessions := make([]*chattypes.Session, 0, len(ids))
	for _, id := range ids {
		if session, ok := s.ctx.GetSession(id); ok {
			sessions = append(sessions, session)
		}
	}
	return sessions
}

// AppendTurn appends a turn to the given session, bumps its UpdatedAt, and
// persists. Appending to an absent session is a silent no-op.
func (s *SessionService) AppendTurn(sessionID string, role chattypes.Role, content string) {
	if !s.initialized {
		return
	}

	session, ok := s.ctx.GetSession(sessionID)
	if !ok {
		s.logger.Debug("Dropping turn for unknown session", "session_id", sessionID)
		return
	}

	session.Messages = append(session.Messages, chattypes.Turn{
		Role:      role,
		Content:   content,
		Timestamp: testutils.GetCurrentTime(s.ctx),
	})
	session.UpdatedAt = testutils.GetCurrentTime(s.ctx)
	s.persistAll()
}

// Rename sets a derived title on a session that still carries the sentinel
// title. Renaming an already-titled session is a no-op.
func (s *SessionService) Rename(id, title string) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	session, ok := s.ctx.GetSession(id)
	if !ok {
		return fmt.Errorf("%w: %s", chattypes.ErrSessionNotFound, id)
	}
	if session.Title != chattypes.SentinelTitle {
		return nil
	}

	session.Title = title
	session.UpdatedAt = testutils.GetCurrentTime(s.ctx)
	s.persistAll()

	s.logger.Debug("Session renamed", "session_id", id, "title", title)
	return nil
}

// RenameFromFirstTurn derives and applies a title from the session's first
// user message, if the title is still the sentinel.
func (s *SessionService) RenameFromFirstTurn(id, message string) error {
	return s.Rename(id, DeriveTitle(message))
}

// Delete removes a session. Deleting the last remaining session is
// rejected; deleting the current session re-selects the first remaining
// session by insertion order.
func (s *SessionService) Delete(id string) error {
	if !s.initialized {
		return fmt.Errorf("session service not initialized")
	}

	if _, ok := s.ctx.GetSession(id); !ok {
		return fmt.Errorf("%w: %s", chattypes.ErrSessionNotFound, id)
	}
	if s.ctx.SessionCount() <= 1 {
		return chattypes.ErrLastSession
	}

	wasCurrent := s.ctx.CurrentSessionID() == id
	s.ctx.RemoveSession(id)
	if wasCurrent {
		s.ctx.SetCurrentSessionID(s.ctx.FirstSessionID())
	}
	s.persistAll()

	s.logger.Debug("Session deleted", "session_id", id, "was_current", wasCurrent)
	return nil
}

// Export produces the serializable snapshot of one session for download.
func (s *SessionService) Export(id string) (*chattypes.SessionExport, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	return &chattypes.SessionExport{
		Title:      session.Title,
		Messages:   session.Messages,
		ExportedAt: testutils.GetCurrentTime(s.ctx),
	}, nil
}

// ExportJSON renders the export snapshot as an indented JSON document.
func (s *SessionService) ExportJSON(id string) ([]byte, error) {
	export, err := s.Export(id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session export: %w", err)
	}
	return data, nil
}

// ExportToFile writes the export document to the given path.
func (s *SessionService) ExportToFile(id, path string) error {
	data, err := s.ExportJSON(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session export: %w", err)
	}
	return nil
}

// DeriveTitle shortens a first user message into a session title: the
// verbatim message when it has at most four words, otherwise the first
// four followed by an ellipsis.
func DeriveTitle(message string) string {
	words := strings.Fields(strings.TrimSpace(message))
	if len(words) == 0 {
		return chattypes.SentinelTitle
	}
	if len(words) <= 4 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:4], " ") + "..."
}

// loadAll reads the sessions blob from the store. Corrupt or unparseable
// data is discarded and treated as empty, never propagated.
func (s *SessionService) loadAll() {
	if !s.ctx.GetSettings().SaveConversations {
		return
	}

	raw, err := s.ctx.Store().Get(storage.KeySessions)
	if err != nil {
		s.logger.Warn("Failed to read sessions blob, starting empty", "error", err)
		return
	}
	if raw == "" {
		return
	}

	// Sessions persist as an ordered array so "first available" selection
	// survives the round trip.
	var loaded []*chattypes.Session
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.logger.Warn("Discarding corrupt sessions blob", "error", err)
		return
	}

	sessions := make(map[string]*chattypes.Session, len(loaded))
	order := make([]string, 0, len(loaded))
	for _, session := range loaded {
		if session == nil || session.ID == "" {
			continue
		}
		if _, dup := sessions[session.ID]; dup {
			continue
		}
		sessions[session.ID] = session
		order = append(order, session.ID)
	}
	s.ctx.ReplaceSessions(sessions, order)
}

// persistAll writes the full session mapping through the store.
func (s *SessionService) persistAll() {
	if !s.ctx.GetSettings().SaveConversations {
		return
	}

	data, err := json.Marshal(s.List())
	if err != nil {
		s.logger.Error("Failed to marshal sessions blob", "error", err)
		return
	}
	if err := s.ctx.Store().Set(storage.KeySessions, string(data)); err != nil {
		s.logger.Error("Failed to persist sessions blob", "error", err)
	}
}
