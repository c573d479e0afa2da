package services

import (
	stdcontext "context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"neuralchat/internal/client"
	"neuralchat/internal/context"
	"neuralchat/internal/logger"
	"neuralchat/internal/render"
	"neuralchat/internal/stream"
	"neuralchat/pkg/chattypes"
)

// OfflineMessage is the synthetic assistant turn appended when the backend
// cannot be reached or a stream fails.
const OfflineMessage = "The bot is offline right now. Start the model server and try again."

// simpleTypingDelay is the artificial user-facing delay before a
// non-streaming fallback response is displayed.
const simpleTypingDelay = time.Second

// State is the controller's per-send state.
type State int

// Controller states. A send moves Idle -> Sending -> Streaming -> Idle, or
// Idle -> Sending -> Idle on failure.
const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Display is the rendering host surface the controller pushes into. The
// host owns inserting markup into its document; the controller only hands
// it rendered strings and status changes.
type Display interface {
	// ShowTyping toggles the typing indicator.
	ShowTyping(active bool)
	// UpdateAssistant replaces the in-progress assistant turn's markup.
	UpdateAssistant(markup string)
	// FinalizeAssistant commits the assistant turn's final markup.
	FinalizeAssistant(markup string)
	// DiscardAssistant removes a partially displayed assistant turn.
	DiscardAssistant()
	// SetConnectionState updates the connection status indicator.
	SetConnectionState(connected bool)
	// Notify shows a transient notification.
	Notify(title, message, level string)
}

// ConversationService orchestrates one outgoing message at a time: it
// appends the user turn, drives the stream decoder, feeds deltas through
// the renderer to the display, and finalizes the assistant turn. Every
// failure below it is absorbed here; nothing propagates past this boundary.
type ConversationService struct {
	initialized bool
	ctx         *context.ChatContext
	logger      *log.Logger

	sessions *SessionService
	backend  *client.Client
	renderer *render.Renderer
	display  Display

	mu    sync.Mutex
	state State
}

// NewConversationService creates a controller over its collaborators.
func NewConversationService(sessions *SessionService, backend *client.Client, renderer *render.Renderer, display Display) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		backend:  backend,
		renderer: renderer,
		display:  display,
		state:    StateIdle,
		logger:   logger.NewStyledLogger("Controller"),
	}
}

// Name returns the service name "conversation" for registration.
func (c *ConversationService) Name() string {
	return "conversation"
}

// Initialize prepares the controller with the injected client context.
func (c *ConversationService) Initialize(ctx *context.ChatContext) error {
	c.ctx = ctx
	c.initialized = true
	return nil
}

// State returns the controller's current state.
func (c *ConversationService) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send runs one outgoing message end to end. Empty text and overlapping
// sends are rejected; every other failure is converted into the synthetic
// offline turn and absorbed.
func (c *ConversationService) Send(ctx stdcontext.Context, text string) error {
	if !c.initialized {
		return fmt.Errorf("conversation service not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return chattypes.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return chattypes.ErrSendInFlight
	}
	c.state = StateSending
	c.mu.Unlock()
	defer c.setState(StateIdle)

	sessionID := c.ctx.CurrentSessionID()

	// The user turn lands in the store before the network call so it is
	// never lost, whatever happens next.
	c.sessions.AppendTurn(sessionID, chattypes.RoleUser, text)
	if err := c.sessions.RenameFromFirstTurn(sessionID, text); err != nil {
		c.logger.Debug("Title derivation skipped", "error", err)
	}
	if err := c.ctx.ClearDraft(); err != nil {
		c.logger.Debug("Failed to clear draft", "error", err)
	}

	// Connectivity probe runs concurrently and only feeds the status
	// indicator; it never gates or cancels the send.
	go func() {
		probeCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 5*time.Second)
		defer cancel()
		c.display.SetConnectionState(c.backend.CheckStatus(probeCtx))
	}()

	if c.ctx.GetSettings().Streaming {
		c.sendStreaming(ctx, sessionID, text)
	} else {
		c.sendSimple(ctx, sessionID, text)
	}
	return nil
}

// sendStreaming drives the streamed chat endpoint: each content delta
// re-renders the full accumulated raw text from scratch, since markup
// boundaries (an unterminated fence, an open list) can only be determined
// from complete context.
func (c *ConversationService) sendStreaming(ctx stdcontext.Context, sessionID, text string) {
	c.display.ShowTyping(true)

	body, err := c.backend.StreamMessage(ctx, text)
	if err != nil {
		c.logger.Error("Streaming send failed", "error", err)
		c.display.ShowTyping(false)
		c.handleOffline(sessionID)
		return
	}
	defer func() { _ = body.Close() }()

	c.setState(StateStreaming)
	c.display.ShowTyping(false)

	var accumulated strings.Builder
	done := false

	streamErr := stream.Run(ctx, body, func(event chattypes.StreamEvent) error {
		switch event.Kind {
		case chattypes.StreamContent:
			accumulated.WriteString(event.Content)
			c.display.UpdateAssistant(c.renderer.Render(accumulated.String()))
		case chattypes.StreamError:
			return fmt.Errorf("in-band stream error: %s", event.Err)
		case chattypes.StreamDone:
			done = true
		}
		return nil
	})

	if streamErr != nil || !done {
		if streamErr != nil {
			c.logger.Error("Stream aborted", "error", streamErr, "session_id", sessionID)
		} else {
			c.logger.Warn("Stream ended without completion signal", "session_id", sessionID)
		}
		c.display.DiscardAssistant()
		c.handleOffline(sessionID)
		return
	}

	final := accumulated.String()
	c.sessions.AppendTurn(sessionID, chattypes.RoleAssistant, final)
	c.display.FinalizeAssistant(c.renderer.Render(final))
}

// sendSimple drives the non-streaming fallback endpoint, with a short
// artificial typing delay before the response is shown.
func (c *ConversationService) sendSimple(ctx stdcontext.Context, sessionID, text string) {
	c.display.ShowTyping(true)

	response, err := c.backend.SendSimple(ctx, text)

	if !c.ctx.IsTestMode() {
		time.Sleep(simpleTypingDelay)
	}
	c.display.ShowTyping(false)

	if err != nil {
		c.logger.Error("Simple send failed", "error", err)
		c.handleOffline(sessionID)
		return
	}

	c.sessions.AppendTurn(sessionID, chattypes.RoleAssistant, response)
	c.display.FinalizeAssistant(c.renderer.Render(response))
}

// ClearBackend asks the backend to drop its server-side conversation
// context. Called when a fresh session begins so the model does not carry
// history across sessions.
func (c *ConversationService) ClearBackend(ctx stdcontext.Context) error {
	if !c.initialized {
		return fmt.Errorf("conversation service not initialized")
	}
	if err := c.backend.ClearHistory(ctx); err != nil {
		c.logger.Warn("Failed to clear backend context", "error", err)
		return err
	}
	return nil
}

// handleOffline appends the single synthetic offline assistant turn and
// flips the status indicator. The user's turn stays untouched.
func (c *ConversationService) handleOffline(sessionID string) {
	c.sessions.AppendTurn(sessionID, chattypes.RoleAssistant, OfflineMessage)
	c.display.FinalizeAssistant(c.renderer.Render(OfflineMessage))
	c.display.SetConnectionState(false)
	c.display.Notify("Offline", OfflineMessage, "error")
}

func (c *ConversationService) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Debug("Controller state change", "state", state.String())
	c.state = state
}
