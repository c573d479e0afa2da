package main

import (
	"bufio"
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"neuralchat/internal/logger"
	"neuralchat/internal/render"
	"neuralchat/pkg/chattypes"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// runChat is the interactive loop. It is thin glue around the core: it
// reads lines, dispatches slash commands to the session store, and hands
// everything else to the conversation controller.
func runChat(_ *cobra.Command, _ []string) {
	display := newTerminalDisplay()
	chatCtx, sessions, conversation, err := buildCore(display)
	if err != nil {
		logger.Fatal("Failed to initialize chat core", "error", err)
	}
	defer func() {
		if err := chatCtx.Dispose(); err != nil {
			logger.Error("Final persist failed", "error", err)
		}
	}()

	preview, err := render.NewTerminalRenderer(chatCtx.GetSettings().Theme, 80)
	if err != nil {
		logger.Warn("Terminal markdown preview unavailable", "error", err)
	}

	current, err := sessions.Current()
	if err != nil {
		logger.Fatal("No current session after initialization", "error", err)
	}
	fmt.Println(titleStyle.Render(current.Title))
	fmt.Println(hintStyle.Render("/new, /list, /switch <id>, /delete <id>, /export <file>, /quit"))

	if draft := chatCtx.GetDraft(); draft != "" {
		fmt.Println(hintStyle.Render("Draft restored: " + draft))
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(line, chatCtx, sessions, conversation, display); quit {
				return
			}
			continue
		}

		// Anything typed but not sent yet would be the draft; once it is
		// submitted the controller clears the slot.
		_ = chatCtx.SetDraft(line)

		if err := conversation.Send(stdcontext.Background(), line); err != nil {
			switch {
			case errors.Is(err, chattypes.ErrSendInFlight):
				display.Notify("Busy", "Wait for the current response to finish", "error")
			case errors.Is(err, chattypes.ErrEmptyMessage):
				// Nothing to do
			default:
				display.Notify("Send Error", err.Error(), "error")
			}
			continue
		}

		printLastAssistantTurn(sessions, preview)
	}
}

// printLastAssistantTurn previews the latest assistant response as ANSI
// markdown. The HTML markup pushed through the Display is for DOM hosts;
// the terminal renders from the raw turn instead.
func printLastAssistantTurn(sessions sessionLister, preview *render.TerminalRenderer) {
	current, err := sessions.Current()
	if err != nil || len(current.Messages) == 0 {
		return
	}

	last := current.Messages[len(current.Messages)-1]
	if last.Role != chattypes.RoleAssistant {
		return
	}

	if preview == nil {
		fmt.Println(last.Content)
		return
	}
	rendered, err := preview.Render(last.Content)
	if err != nil {
		fmt.Println(last.Content)
		return
	}
	fmt.Print(rendered)
}

type sessionLister interface {
	Current() (*chattypes.Session, error)
}
