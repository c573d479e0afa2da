package main

import (
	stdcontext "context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neuralchat/internal/context"
	"neuralchat/internal/services"
	"neuralchat/pkg/chattypes"
)

// handleCommand dispatches one slash command against the session store.
// It returns true when the loop should exit.
func handleCommand(line string, chatCtx *context.ChatContext, sessions *services.SessionService, conversation *services.ConversationService, display services.Display) bool {
	fields := strings.Fields(line)
	command := fields[0]
	args := fields[1:]

	switch command {
	case "/quit", "/exit":
		return true

	case "/new":
		session, err := sessions.CreateNew()
		if err != nil {
			display.Notify("Error", err.Error(), "error")
			return false
		}
		// The model server keeps its own conversation context; a fresh
		// session should not inherit it.
		clearCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 5*time.Second)
		_ = conversation.ClearBackend(clearCtx)
		cancel()
		display.Notify("New Chat", "Created new chat session "+session.ID, "info")
		fmt.Println(titleStyle.Render(session.Title))

	case "/list":
		currentID := chatCtx.CurrentSessionID()
		for _, session := range sessions.List() {
			marker := " "
			if session.ID == currentID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  (%d turns)\n", marker, session.ID, session.Title, len(session.Messages))
		}

	case "/switch":
		if len(args) != 1 {
			display.Notify("Usage", "/switch <session-id>", "error")
			return false
		}
		if err := sessions.SwitchTo(args[0]); err != nil {
			display.Notify("Error", err.Error(), "error")
			return false
		}
		if session, err := sessions.Current(); err == nil {
			fmt.Println(titleStyle.Render(session.Title))
		}

	case "/delete":
		if len(args) != 1 {
			display.Notify("Usage", "/delete <session-id>", "error")
			return false
		}
		err := sessions.Delete(args[0])
		switch {
		case errors.Is(err, chattypes.ErrLastSession):
			display.Notify("Cannot Delete", "You must have at least one session", "error")
		case err != nil:
			display.Notify("Error", err.Error(), "error")
		default:
			display.Notify("Session Deleted", "Chat session has been deleted", "info")
		}

	case "/export":
		if len(args) != 1 {
			display.Notify("Usage", "/export <file>", "error")
			return false
		}
		if err := sessions.ExportToFile(chatCtx.CurrentSessionID(), args[0]); err != nil {
			display.Notify("Export Failed", err.Error(), "error")
			return false
		}
		display.Notify("Export Complete", "Chat has been exported as JSON", "info")

	default:
		display.Notify("Unknown Command", command, "error")
	}

	return false
}
