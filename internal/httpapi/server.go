package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/timedial/internal/chat"
	"github.com/ent0n29/timedial/internal/config"
	"github.com/ent0n29/timedial/internal/observability"
	"github.com/ent0n29/timedial/internal/speech"
	"github.com/ent0n29/timedial/internal/transcript"
)

// ChatGateway produces a response for every conversation request.
type ChatGateway interface {
	Converse(ctx context.Context, req chat.Request) chat.Response
}

// SpeechGateway synthesizes audio or fails with a typed error.
type SpeechGateway interface {
	Synthesize(ctx context.Context, req speech.Request) (speech.Audio, error)
}

type Server struct {
	cfg         config.Config
	chat        ChatGateway
	speech      SpeechGateway
	transcripts transcript.Store
	metrics     *observability.Metrics
}

func New(cfg config.Config, chatGW ChatGateway, speechGW SpeechGateway, transcripts transcript.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:         cfg,
		chat:        chatGW,
		speech:      speechGW,
		transcripts: transcripts,
		metrics:     metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Post("/speech", s.handleSpeech)
	r.Get("/v1/transcripts", s.handleListTranscripts)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	caps := s.cfg.Capabilities()
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"chat":   caps.Chat,
		"speech": caps.Speech,
	})
}

// corsMiddleware mirrors allowed origins back to the browser frontend.
// Without APP_ALLOW_ANY_ORIGIN only same-host origins are accepted.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" && s.originAllowed(origin, r.Host) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin, host string) bool {
	if s.cfg.AllowAnyOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
