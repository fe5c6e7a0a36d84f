package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hupe1980/stagehand/engine"
	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/presentation"
	"github.com/hupe1980/stagehand/speech"
)

// Options configure the server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// AudioDir serves pre-generated narration files under /audio/ when set.
	AudioDir string

	// Synthesizer backs the speech diagnostic endpoints; nil reports
	// unconfigured.
	Synthesizer speech.Synthesizer

	Logger logging.Logger
}

// Server is the HTTP and WebSocket surface over one engine. It implements
// engine.Sink.
type Server struct {
	engine     *engine.Engine
	router     *mux.Router
	httpServer *http.Server
	presenters *Hub
	controls   *Hub
	upgrader   websocket.Upgrader
	synth      speech.Synthesizer
	logger     logging.Logger
}

// New creates a server for the given engine. Attach it with engine.SetSink.
func New(eng *engine.Engine, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:   ":8080",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		engine:     eng,
		router:     mux.NewRouter(),
		presenters: NewHub(opts.Logger),
		controls:   NewHub(opts.Logger),
		upgrader: websocket.Upgrader{
			// Presenter and console run from local files or another origin
			// during a live session.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		synth:  opts.Synthesizer,
		logger: opts.Logger,
	}

	s.router.HandleFunc("/ws/presenter", s.handlePresenterWS)
	s.router.HandleFunc("/ws/control", s.handleControlWS)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/command", s.handleCommand).Methods(http.MethodPost)
	api.HandleFunc("/questions", s.handleSubmitQuestion).Methods(http.MethodPost)
	api.HandleFunc("/questions", s.handleListQuestions).Methods(http.MethodGet)
	api.HandleFunc("/questions/pending", s.handlePendingQuestions).Methods(http.MethodGet)
	api.HandleFunc("/speech/status", s.handleSpeechStatus).Methods(http.MethodGet)
	api.HandleFunc("/speech/test", s.handleSpeechTest).Methods(http.MethodPost)

	if opts.AudioDir != "" {
		s.router.PathPrefix("/audio/").Handler(http.StripPrefix("/audio/", http.FileServer(http.Dir(opts.AudioDir))))
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

var _ engine.Sink = (*Server)(nil)

// BroadcastPresenter implements engine.Sink.
func (s *Server) BroadcastPresenter(effects ...presentation.Effect) {
	for _, effect := range effects {
		s.presenters.Broadcast(encodeEffect(effect))
	}
}

// BroadcastControl implements engine.Sink.
func (s *Server) BroadcastControl(msg engine.ControlMessage) {
	s.controls.Broadcast(msg)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePresenterWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Presenter upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}
	s.presenters.add(c)
	s.logger.Info("Presenter connected", "remote", r.RemoteAddr)
	defer func() {
		conn.Close()
		s.presenters.remove(c)
		s.logger.Info("Presenter disconnected", "remote", r.RemoteAddr)
	}()

	report := s.engine.Status()
	c.send(presenterMessage{Type: "connected", State: string(report.Snapshot.State), Slide: report.Snapshot.CurrentSlide})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "audio_ended":
			s.engine.ReportAudioComplete(msg.PlaybackToken)
		case "slide_changed":
			s.engine.ReportSlide(msg.Slide)
		case "ping":
			c.send(map[string]string{"type": "pong"})
		default:
			s.logger.Debug("Unhandled presenter message", "type", msg.Type)
		}
	}
}

func (s *Server) handleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Control upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}
	s.controls.add(c)
	s.logger.Info("Control console connected", "remote", r.RemoteAddr)
	defer func() {
		conn.Close()
		s.controls.remove(c)
	}()

	c.send(map[string]any{"type": "connected", "status": s.engine.Status()})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "command":
			res := s.engine.SubmitText(r.Context(), msg.Text)
			c.send(map[string]any{"type": "command_result", "result": res})
		case "ping":
			c.send(map[string]string{"type": "pong"})
		default:
			s.logger.Debug("Unhandled control message", "type", msg.Type)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"presenters": s.presenters.Count(),
		"controls":   s.controls.Count(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.SubmitText(r.Context(), req.Text))
}

func (s *Server) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	q, err := s.engine.SubmitQuestion(r.Context(), req.Name, req.Question)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleListQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": s.engine.Questions().All(),
		"counts":    s.engine.Questions().Counts(),
	})
}

func (s *Server) handlePendingQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": s.engine.Questions().Pending()})
}

func (s *Server) handleSpeechStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"configured": s.synth != nil && s.synth.Configured()}

	// Adapter specific extras when the backend exposes them.
	if reporter, ok := s.synth.(interface {
		Credits(ctx context.Context) (int, error)
	}); ok && s.synth.Configured() {
		if credits, err := reporter.Credits(r.Context()); err == nil {
			status["credits_remaining"] = credits
		}
	}
	if lister, ok := s.synth.(interface {
		Voices(ctx context.Context) ([]speech.Voice, error)
	}); ok && s.synth.Configured() {
		if voices, err := lister.Voices(r.Context()); err == nil {
			status["voices"] = voices
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSpeechTest(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil || !s.synth.Configured() {
		writeError(w, http.StatusServiceUnavailable, errors.New("speech synthesis is not configured"))
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Text == "" {
		req.Text = "Stagehand speech check, one two three."
	}

	if r.URL.Query().Get("stream") != "" {
		s.streamSpeechTest(w, r, req.Text)
		return
	}

	audio, err := s.synth.Synthesize(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("synthesis failed: %w", err))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// streamSpeechTest forwards synthesis chunks as they arrive, for verifying
// low-latency playback end to end.
func (s *Server) streamSpeechTest(w http.ResponseWriter, r *http.Request, text string) {
	chunks, errs := s.synth.Stream(r.Context(), text)

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if len(chunk.Data) > 0 {
				w.Write(chunk.Data)
				if flusher != nil {
					flusher.Flush()
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				s.logger.Error("Speech stream failed", "error", err)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
