package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// TerminalRenderer previews raw assistant markdown as ANSI terminal output.
// It is the rendering host used by the CLI; the markup pipeline above
// serves hosts that consume HTML.
type TerminalRenderer struct {
	renderer *glamour.TermRenderer
}

// NewTerminalRenderer creates a terminal renderer for the given theme.
// Theme "auto" resolves against the terminal background.
func NewTerminalRenderer(theme string, wordWrap int) (*TerminalRenderer, error) {
	if wordWrap <= 0 {
		wordWrap = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(resolveStyle(theme)),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	return &TerminalRenderer{renderer: renderer}, nil
}

// Render renders raw markdown to ANSI output.
func (t *TerminalRenderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}

	rendered, err := t.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

// resolveStyle maps the client theme setting to a glamour style.
func resolveStyle(theme string) string {
	switch strings.ToLower(theme) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	case "auto":
		if termenv.HasDarkBackground() {
			return "dark"
		}
		return "light"
	default:
		return "notty"
	}
}
