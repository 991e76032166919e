package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-atmosphere/pkg/core"
)

// ConsoleMessage is a log line forwarded to browser consoles
type ConsoleMessage struct {
	Type      string    `json:"type"` // Always "console"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by writing to the server log and
// sending a copy to the web console channel
type WebLogger struct {
	next        core.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a logger that tees to next and consoleChan.
// Either may be nil.
func NewWebLogger(next core.Logger, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		next:        next,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.next != nil {
		wl.next.Printf("%s", message)
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Type:      "console",
			Message:   message,
			Timestamp: time.Now(),
			Level:     levelOf(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}

// levelOf guesses a console level from the message text
func levelOf(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return "error"
	case strings.Contains(lower, "rejected") || strings.Contains(lower, "ignoring") || strings.Contains(lower, "warning"):
		return "warning"
	default:
		return "info"
	}
}
