package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/frame"
	"github.com/df07/go-atmosphere/pkg/metrics"
	"github.com/df07/go-atmosphere/pkg/scene"
	"github.com/df07/go-atmosphere/pkg/ui"
)

var (
	errMissingParams  = errors.New("params message without params")
	errRateLimited    = errors.New("too many parameter edits, slow down")
	errUnknownMessage = errors.New("unknown message type")
	errQueueFull      = errors.New("edit queue full")
)

// Options configures a Server
type Options struct {
	FPS       float64 // Frame rate of the render loop
	EditRate  float64 // Parameter edits per second per client
	EditBurst int
	StaticDir string              // Served at "/" when set
	Gatherer  prometheus.Gatherer // Source for /metrics; nil uses the default registry
	Metrics   *metrics.Collector  // Counts edits refused before they reach the frame loop
	Logger    core.Logger
}

// Server streams frames of a runtime to browsers and feeds their edits back
type Server struct {
	port        int
	runtime     *frame.Runtime
	options     Options
	logger      core.Logger
	consoleChan <-chan ConsoleMessage
	hub         *hub

	mu        sync.RWMutex
	settings  ui.Settings // As of the last published frame
	latest    *FrameUpdate
	latestPNG []byte

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter // HTTP edit limiters per client host
}

// FrameUpdate is one rendered frame as pushed to clients
type FrameUpdate struct {
	Type      string      `json:"type"` // Always "frame"
	Tick      uint64      `json:"tick"`
	ImageData string      `json:"imageData"` // Base64 encoded PNG
	Settings  ui.Settings `json:"settings"`
	Stats     Stats       `json:"stats"`
	Rejected  []string    `json:"rejected,omitempty"`
	ElapsedMs int64       `json:"elapsedMs"`
}

// Stats represents frame statistics
type Stats struct {
	DrawCalls int   `json:"drawCalls"`
	Triangles int   `json:"triangles"`
	Culled    int   `json:"culled"`
	Clipped   int   `json:"clipped"`
	Fragments int   `json:"fragments"`
	Blended   int   `json:"blended"`
	FrameMs   int64 `json:"frameMs"`
}

// ParamsResponse is the body of GET /api/params
type ParamsResponse struct {
	Preset   scene.Preset `json:"preset"`
	Settings ui.Settings  `json:"settings"`
	Panel    ui.Panel     `json:"panel"`
}

// NewServer creates a web server for rt. Log lines arriving on consoleChan
// are forwarded to connected clients.
func NewServer(port int, rt *frame.Runtime, consoleChan <-chan ConsoleMessage, opts Options) *Server {
	if opts.EditBurst < 1 {
		opts.EditBurst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger{}
	}
	return &Server{
		port:        port,
		runtime:     rt,
		options:     opts,
		logger:      logger,
		consoleChan: consoleChan,
		hub:         newHub(),
		settings:    rt.Orchestrator.Scene().Settings,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.options.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.options.StaticDir)))
	}

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", metrics.Handler(s.options.Gatherer))
	return mux
}

// Start runs the frame loop and serves HTTP until ctx is cancelled or
// either of them fails
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.RunLoop(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting web server on http://localhost%s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		return err
	case err = <-loopErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Printf("Web server shutdown failed: %v", shutdownErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunLoop renders frames at the configured rate and publishes each one
// until ctx is cancelled
func (s *Server) RunLoop(ctx context.Context) error {
	go s.forwardConsole(ctx)
	return s.runtime.Orchestrator.Run(ctx, s.options.FPS, 0, s.publish)
}

func (s *Server) forwardConsole(ctx context.Context) {
	if s.consoleChan == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.consoleChan:
			s.hub.broadcast(outbound{event: "console", payload: msg})
		}
	}
}

// publish stores f as the latest frame and pushes it to subscribers.
// It runs on the frame loop goroutine between ticks.
func (s *Server) publish(f frame.Frame) error {
	pngData, err := encodePNG(f.Image)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Tick, err)
	}

	update := &FrameUpdate{
		Type:      "frame",
		Tick:      f.Tick,
		ImageData: base64.StdEncoding.EncodeToString(pngData),
		Settings:  s.runtime.Orchestrator.Scene().Settings,
		Stats: Stats{
			DrawCalls: f.Stats.DrawCalls,
			Triangles: f.Stats.Triangles,
			Culled:    f.Stats.Culled,
			Clipped:   f.Stats.Clipped,
			Fragments: f.Stats.Fragments,
			Blended:   f.Stats.Blended,
			FrameMs:   f.Stats.Duration.Milliseconds(),
		},
		ElapsedMs: int64(f.Elapsed * 1000),
	}
	for _, rejected := range f.Rejected {
		update.Rejected = append(update.Rejected, rejected.Error())
	}

	s.mu.Lock()
	s.settings = update.Settings
	s.latest = update
	s.latestPNG = pngData
	s.mu.Unlock()

	s.hub.broadcast(outbound{event: "frame", payload: update})
	return nil
}

func (s *Server) latestUpdate() (*FrameUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// submitEdits checks e against the latest settings and queues it for the
// frame loop, which validates it again when applying
func (s *Server) submitEdits(e ui.Edits) error {
	if !s.runtime.Preset.AcceptEdits && !e.CameraOnly() && !e.Empty() {
		s.recordEdit(false)
		return frame.ErrEditsLocked
	}

	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()
	if _, err := s.runtime.Orchestrator.Panel().Apply(e, &settings); err != nil {
		s.recordEdit(false)
		return err
	}

	if !s.runtime.Edits.PushEdits(e) {
		return errQueueFull
	}
	return nil
}

func (s *Server) pushInput(ev ui.InputEvent) error {
	if !s.runtime.Edits.PushInput(ev) {
		return errQueueFull
	}
	return nil
}

func (s *Server) recordEdit(applied bool) {
	if s.options.Metrics != nil {
		s.options.Metrics.RecordEdit(applied)
	}
}

// limiterFor returns the HTTP edit limiter of the client behind r
func (s *Server) limiterFor(r *http.Request) *rate.Limiter {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.options.EditRate), s.options.EditBurst)
		s.limiters[host] = limiter
	}
	return limiter
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"preset": s.runtime.Preset.ID,
	})
}

// handleParams returns the current settings on GET and queues an edit on POST
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		settings := s.settings
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, ParamsResponse{
			Preset:   s.runtime.Preset,
			Settings: settings,
			Panel:    s.runtime.Orchestrator.Panel(),
		})
	case http.MethodPost:
		s.handleParamsPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleParamsPost(w http.ResponseWriter, r *http.Request) {
	if !s.limiterFor(r).Allow() {
		s.recordEdit(false)
		writeError(w, http.StatusTooManyRequests, errRateLimited.Error())
		return
	}

	var edits ui.Edits
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edits); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid edit: %v", err))
		return
	}

	err := s.submitEdits(edits)
	var validationErr *ui.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case errors.Is(err, frame.ErrEditsLocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleFrame serves the latest frame as a PNG
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.latestPNG
	s.mu.RUnlock()

	if data == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// handlePresets lists the available presets and the active one
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":  s.runtime.Preset.ID,
		"presets": scene.Presets(),
	})
}

// handleStream pushes frames and console lines as server-sent events
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)

	if update, ok := s.latestUpdate(); ok {
		if err := s.sendSSEMessage(w, outbound{event: "frame", payload: update}); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-sub:
			if err := s.sendSSEMessage(w, msg); err != nil {
				s.logger.Printf("SSE write failed: %v", err)
				return
			}
		}
	}
}

func (s *Server) sendSSEMessage(w http.ResponseWriter, msg outbound) error {
	data, err := json.Marshal(msg.payload)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, msg.event, string(data))
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}
