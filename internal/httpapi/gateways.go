package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ent0n29/timedial/internal/chat"
	"github.com/ent0n29/timedial/internal/reliability"
	"github.com/ent0n29/timedial/internal/speech"
	"github.com/ent0n29/timedial/internal/transcript"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp := s.chat.Converse(r.Context(), req)
	s.saveTranscript(r, req, resp)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) saveTranscript(r *http.Request, req chat.Request, resp chat.Response) {
	if s.transcripts == nil {
		return
	}
	err := s.transcripts.SaveExchange(r.Context(), transcript.Record{
		Prompt:   req.Prompt,
		Reply:    resp.Text,
		Grounded: len(resp.Sources) > 0,
	})
	if err != nil {
		// Best-effort: a persistence failure never reaches the client.
		log.Printf("transcript save failed: %v", err)
	}
}

type speechRequest struct {
	Text string `json:"text"`
	// The web client has shipped both spellings over time.
	VoiceID      string `json:"voice_id"`
	VoiceIDCamel string `json:"voiceId"`
}

func (r speechRequest) voice() string {
	if v := strings.TrimSpace(r.VoiceID); v != "" {
		return v
	}
	return strings.TrimSpace(r.VoiceIDCamel)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	audio, err := s.speech.Synthesize(r.Context(), speech.Request{Text: req.Text, VoiceID: req.voice()})
	if err != nil {
		s.writeSpeechError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

// writeSpeechError is the speech half of the response normalizer: typed
// gateway failures become structured JSON the frontend can react to, with
// meaningful upstream statuses mirrored through.
func (s *Server) writeSpeechError(w http.ResponseWriter, err error) {
	var rejected *speech.RejectedError
	switch {
	case errors.Is(err, speech.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "speech_unconfigured", "ELEVENLABS_API_KEY is not set")
	case errors.Is(err, speech.ErrNoVoiceAvailable):
		respondError(w, http.StatusBadGateway, "no_voice_available", err.Error())
	case errors.As(err, &rejected):
		respondError(w, reliability.ClientStatus(rejected.Status), "provider_rejected", rejected.Body)
	default:
		respondError(w, http.StatusBadGateway, "provider_unreachable", err.Error())
	}
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	records, err := s.transcripts.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "transcripts_unavailable", err.Error())
		return
	}
	if records == nil {
		records = []transcript.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"transcripts": records})
}
