package main

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	connectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	offlineStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	typingStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	noticeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// terminalDisplay renders conversation state to stdout. The controller
// previews the response separately once Send returns, so the streaming
// update hooks stay quiet here.
type terminalDisplay struct {
	mu        sync.Mutex
	connected bool
	typing    bool
}

func newTerminalDisplay() *terminalDisplay {
	return &terminalDisplay{connected: true}
}

func (d *terminalDisplay) ShowTyping(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if active && !d.typing {
		fmt.Println(typingStyle.Render("assistant is typing..."))
	}
	d.typing = active
}

// UpdateAssistant is called once per delta with the full re-rendered
// markup. The terminal prints the finished turn instead of redrawing.
func (d *terminalDisplay) UpdateAssistant(markup string) {}

func (d *terminalDisplay) FinalizeAssistant(markup string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typing = false
}

func (d *terminalDisplay) DiscardAssistant() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typing = false
}

// SetConnectionState is called from the status probe goroutine.
func (d *terminalDisplay) SetConnectionState(connected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if connected == d.connected {
		return
	}
	d.connected = connected
	if connected {
		fmt.Println(connectedStyle.Render("● Connected"))
	} else {
		fmt.Println(offlineStyle.Render("● Offline"))
	}
}

func (d *terminalDisplay) Notify(title, message, level string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	style := noticeStyle
	if level == "error" {
		style = errorStyle
	}
	fmt.Printf("%s %s\n", style.Render(title+":"), message)
}
