package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/df07/go-atmosphere/pkg/ui"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

// ClientMessage is a message a browser sends over the websocket
type ClientMessage struct {
	Type    string    `json:"type"` // "params", "key", "mouse" or "cursor"
	Params  *ui.Edits `json:"params,omitempty"`
	Key     int       `json:"key,omitempty"`
	Button  int       `json:"button,omitempty"`
	Pressed bool      `json:"pressed,omitempty"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
}

// ErrorMessage reports a rejected client message
type ErrorMessage struct {
	Type  string `json:"type"` // Always "error"
	Error string `json:"error"`
}

// SafeWriter serializes writes to a websocket connection
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter wraps conn
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

// WriteJSON writes v as one text message
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

// Close closes the connection
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket streams frames to the client and feeds its edits and
// input to the frame loop
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Websocket upgrade failed: %v", err)
		return
	}
	writer := NewSafeWriter(conn)
	defer writer.Close()

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)
	s.logger.Printf("Websocket client connected from %s", r.RemoteAddr)

	// Latest frame first so the client does not wait for the next tick
	if update, ok := s.latestUpdate(); ok {
		writer.WriteJSON(update)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readClient(conn, writer)
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-sub:
			if err := writer.WriteJSON(msg.payload); err != nil {
				s.logger.Printf("Websocket write failed: %v", err)
				return
			}
		}
	}
}

// readClient handles incoming messages until the connection closes
func (s *Server) readClient(conn *websocket.Conn, writer *SafeWriter) {
	conn.SetReadLimit(maxMessageSize)
	limiter := rate.NewLimiter(rate.Limit(s.options.EditRate), s.options.EditBurst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			writer.WriteJSON(ErrorMessage{Type: "error", Error: "invalid message: " + err.Error()})
			continue
		}

		if err := s.handleClientMessage(msg, limiter); err != nil {
			writer.WriteJSON(ErrorMessage{Type: "error", Error: err.Error()})
		}
	}
}

func (s *Server) handleClientMessage(msg ClientMessage, limiter *rate.Limiter) error {
	switch msg.Type {
	case "params":
		if msg.Params == nil {
			return errMissingParams
		}
		if !limiter.Allow() {
			s.recordEdit(false)
			return errRateLimited
		}
		return s.submitEdits(*msg.Params)
	case "key":
		return s.pushInput(ui.InputEvent{Kind: ui.KeyInput, Key: msg.Key, Pressed: msg.Pressed})
	case "mouse":
		return s.pushInput(ui.InputEvent{Kind: ui.MouseButtonInput, Button: msg.Button, Pressed: msg.Pressed})
	case "cursor":
		return s.pushInput(ui.InputEvent{Kind: ui.CursorInput, X: msg.X, Y: msg.Y})
	default:
		return errUnknownMessage
	}
}
