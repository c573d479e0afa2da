// Package context provides the explicit client state object for neuralchat.
// It owns the in-memory session map, the current-session pointer, the user
// settings, and the draft slot, and bridges them to the persistence store.
// Services receive a ChatContext at construction instead of reaching for
// ambient globals.
package context

import (
	"encoding/json"
	"fmt"

	"neuralchat/internal/logger"
	"neuralchat/internal/storage"
	"neuralchat/pkg/chattypes"
)

// ChatContext holds all shared mutable client state. All access happens from
// one logical thread (the interactive loop); mutations are followed by an
// immediate persistence write so durable state never diverges from memory.
type ChatContext struct {
	store    storage.Store
	testMode bool

	settings chattypes.Settings
	draft    string

	sessions     map[string]*chattypes.Session
	sessionOrder []string // insertion order, drives "first available" selection
	currentID    string
}

// New creates a ChatContext backed by the given store. Call Initialize to
// load persisted state before use.
func New(store storage.Store) *ChatContext {
	return &ChatContext{
		store:    store,
		settings: chattypes.DefaultSettings(),
		sessions: make(map[string]*chattypes.Session),
	}
}

// Initialize loads the persisted settings and draft. Corrupt blobs are
// discarded and replaced with defaults rather than propagated.
func (c *ChatContext) Initialize() error {
	raw, err := c.store.Get(storage.KeySettings)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if raw != "" {
		var s chattypes.Settings
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			logger.Warn("Discarding corrupt settings blob", "error", err)
		} else {
			c.settings = s
		}
	}

	draft, err := c.store.Get(storage.KeyDraft)
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}
	c.draft = draft

	return nil
}

// Dispose performs the final persistence write for state that is not
// already written on every mutation.
func (c *ChatContext) Dispose() error {
	if err := c.SaveSettings(); err != nil {
		return err
	}
	return c.persistDraft()
}

// SetTestMode enables or disables deterministic test mode.
func (c *ChatContext) SetTestMode(enabled bool) {
	c.testMode = enabled
}

// IsTestMode returns whether deterministic test mode is enabled.
func (c *ChatContext) IsTestMode() bool {
	return c.testMode
}

// Store returns the persistence collaborator.
func (c *ChatContext) Store() storage.Store {
	return c.store
}

// GetSettings returns the current settings.
func (c *ChatContext) GetSettings() chattypes.Settings {
	return c.settings
}

// SetSettings replaces the settings and persists them immediately.
func (c *ChatContext) SetSettings(s chattypes.Settings) error {
	c.settings = s
	return c.SaveSettings()
}

// SaveSettings persists the current settings blob.
func (c *ChatContext) SaveSettings() error {
	data, err := json.Marshal(c.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return c.store.Set(storage.KeySettings, string(data))
}

// GetDraft returns the single-slot draft string.
func (c *ChatContext) GetDraft() string {
	return c.draft
}

// SetDraft stores the draft and persists it immediately.
func (c *ChatContext) SetDraft(draft string) error {
	c.draft = draft
	return c.persistDraft()
}

// ClearDraft empties the draft slot.
func (c *ChatContext) ClearDraft() error {
	c.draft = ""
	return c.store.Remove(storage.KeyDraft)
}

func (c *ChatContext) persistDraft() error {
	if c.draft == "" {
		return c.store.Remove(storage.KeyDraft)
	}
	return c.store.Set(storage.KeyDraft, c.draft)
}

// GetSession returns the session with the given id, if present.
func (c *ChatContext) GetSession(id string) (*chattypes.Session, bool) {
	session, ok := c.sessions[id]
	return session, ok
}

// AddSession inserts a session, recording its insertion position.
func (c *ChatContext) AddSession(session *chattypes.Session) {
	if _, exists := c.sessions[session.ID]; !exists {
		c.sessionOrder = append(c.sessionOrder, session.ID)
	}
	c.sessions[session.ID] = session
}

// RemoveSession deletes a session from the map and the insertion order.
func (c *ChatContext) RemoveSession(id string) {
	delete(c.sessions, id)
	for i, sid := range c.sessionOrder {
		if sid == id {
			c.sessionOrder = append(c.sessionOrder[:i], c.sessionOrder[i+1:]...)
			break
		}
	}
}

// SessionCount returns the number of stored sessions.
func (c *ChatContext) SessionCount() int {
	return len(c.sessions)
}

// SessionIDs returns session ids in stable insertion order.
func (c *ChatContext) SessionIDs() []string {
	ids := make([]string, len(c.sessionOrder))
	copy(ids, c.sessionOrder)
	return ids
}

// FirstSessionID returns the first session by insertion order, or "" when
// the store is empty.
func (c *ChatContext) FirstSessionID() string {
	if len(c.sessionOrder) == 0 {
		return ""
	}
	return c.sessionOrder[0]
}

// CurrentSessionID returns the id of the current session.
func (c *ChatContext) CurrentSessionID() string {
	return c.currentID
}

// SetCurrentSessionID updates the current-session pointer.
func (c *ChatContext) SetCurrentSessionID(id string) {
	c.currentID = id
}

// ReplaceSessions swaps in a freshly loaded session map with the given
// insertion order. Used by the session store during initialization.
func (c *ChatContext) ReplaceSessions(sessions map[string]*chattypes.Session, order []string) {
	c.sessions = sessions
	c.sessionOrder = order
}
