// Package chattypes defines the core data types for neuralchat.
// This file contains the session and conversation types shared between the
// session store, the conversation controller, and the rendering pipeline.
package chattypes

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles. The wire protocol and the persisted session blobs use
// these literal strings.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SentinelTitle is the placeholder title of a session that has not yet been
// renamed from its first user message.
const SentinelTitle = "New Chat"

// Turn represents a single message (user or assistant) within a session's
// ordered history. Turns are immutable once appended; an in-progress
// assistant response lives outside the store until the stream completes.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a named, independently persisted conversation.
// Identity is the ID; UpdatedAt is bumped on every mutation.
type Session struct {
	ID        string    `json:"id"`         // Unique session identifier
	Title     string    `json:"title"`      // Display title, starts as SentinelTitle
	Messages  []Turn    `json:"messages"`   // Ordered conversation history
	CreatedAt time.Time `json:"created_at"` // Session creation timestamp
	UpdatedAt time.Time `json:"updated_at"` // Last modification timestamp
}

// SessionExport is the serializable snapshot of one session produced for
// download as a JSON document. There is no import path.
type SessionExport struct {
	Title      string    `json:"title"`
	Messages   []Turn    `json:"messages"`
	ExportedAt time.Time `json:"exported_at"`
}

// StreamEventKind tags the variants of a StreamEvent.
type StreamEventKind int

// Stream event variants, in the order they can appear on the wire.
const (
	StreamContent StreamEventKind = iota // incremental content delta
	StreamError                          // in-band error payload, terminal
	StreamDone                           // completion signal, terminal
)

// StreamEvent is one decoded event from a streamed chat response.
// Events are transient: produced by the stream decoder, consumed
// immediately, never persisted.
type StreamEvent struct {
	Kind    StreamEventKind
	Content string // set for StreamContent
	Err     string // set for StreamError
}

// Settings holds the user-facing client settings persisted as a single blob.
type Settings struct {
	Theme             string `json:"theme"`
	Streaming         bool   `json:"streaming"`
	AutoScroll        bool   `json:"auto_scroll"`
	ShowTimestamps    bool   `json:"show_timestamps"`
	SaveConversations bool   `json:"save_conversations"`
}

// DefaultSettings returns the settings used before any persisted blob exists.
func DefaultSettings() Settings {
	return Settings{
		Theme:             "dark",
		Streaming:         true,
		AutoScroll:        true,
		ShowTimestamps:    true,
		SaveConversations: true,
	}
}

// Context is the minimal context surface shared across packages.
// The concrete implementation lives in internal/context.
type Context interface {
	// IsTestMode returns whether deterministic test mode is enabled.
	IsTestMode() bool
}
