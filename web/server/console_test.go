package server

import (
	"fmt"
	"testing"
	"time"
)

// captureLogger records Printf calls
type captureLogger struct {
	lines []string
}

func (c *captureLogger) Printf(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestWebLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	next := &captureLogger{}
	logger := NewWebLogger(next, messageChan)

	logger.Printf("Scene %q ready", "planet")

	select {
	case msg := <-messageChan:
		expected := `Scene "planet" ready`
		if msg.Message != expected {
			t.Errorf("Expected message '%s', got '%s'", expected, msg.Message)
		}
		if msg.Type != "console" {
			t.Errorf("Expected type 'console', got '%s'", msg.Type)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}

	if len(next.lines) != 1 || next.lines[0] != `Scene "planet" ready` {
		t.Errorf("Expected message forwarded to server log, got %v", next.lines)
	}
}

func TestWebLogger_Levels(t *testing.T) {
	testCases := []struct {
		message  string
		expected string
	}{
		{"Rendered 10 frames", "info"},
		{"Rejected UI edit: ui: invalid Kr", "warning"},
		{"Ignoring parameter file: decode failed", "error"},
		{"Frame error: worker 1 panicked", "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			if got := levelOf(tc.message); got != tc.expected {
				t.Errorf("levelOf(%q) = %q, want %q", tc.message, got, tc.expected)
			}
		})
	}
}

func TestWebLogger_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger(nil, messageChan)

	logger.Printf("Message 1")

	// These must not block even though the channel is full
	done := make(chan struct{})
	go func() {
		logger.Printf("Message 2")
		logger.Printf("Message 3")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Printf blocked on a full console channel")
	}

	if msg := <-messageChan; msg.Message != "Message 1" {
		t.Errorf("Expected first message to be kept, got '%s'", msg.Message)
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger(&captureLogger{}, nil)

	// This should not panic
	logger.Printf("Test message with nil channel")
}
