package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ent0n29/timedial/internal/chat"
	"github.com/ent0n29/timedial/internal/config"
	"github.com/ent0n29/timedial/internal/observability"
	"github.com/ent0n29/timedial/internal/speech"
	"github.com/ent0n29/timedial/internal/transcript"
)

type stubChatGateway struct {
	lastReq chat.Request
	resp    chat.Response
}

func (g *stubChatGateway) Converse(_ context.Context, req chat.Request) chat.Response {
	g.lastReq = req
	return g.resp
}

type stubSpeechGateway struct {
	lastReq speech.Request
	audio   speech.Audio
	err     error
}

func (g *stubSpeechGateway) Synthesize(_ context.Context, req speech.Request) (speech.Audio, error) {
	g.lastReq = req
	if g.err != nil {
		return speech.Audio{}, g.err
	}
	return g.audio, nil
}

func newTestServer(t *testing.T, cfg config.Config, chatGW ChatGateway, speechGW SpeechGateway) (*Server, *httptest.Server) {
	t.Helper()
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%s_%d", time.Now().Format("150405"), time.Now().UnixNano()))
	srv := New(cfg, chatGW, speechGW, transcript.NewInMemoryStore(50), metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHealthReportsCapabilities(t *testing.T) {
	cfg := config.Config{GoogleAPIKey: "g-key"}
	_, ts := newTestServer(t, cfg, &stubChatGateway{}, &stubSpeechGateway{})

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %v, want ok", body["status"])
	}
	if body["chat"] != true || body["speech"] != false {
		t.Fatalf("capabilities = chat:%v speech:%v, want chat only", body["chat"], body["speech"])
	}
}

func TestChatAlwaysRespondsOK(t *testing.T) {
	gw := &stubChatGateway{resp: chat.Response{
		Text:    "Guten Tag!",
		Sources: []chat.Source{{Title: "Relativity", URL: "https://w.example"}},
	}}
	_, ts := newTestServer(t, config.Config{}, gw, &stubSpeechGateway{})

	payload, _ := json.Marshal(chat.Request{
		Prompt:            "hello",
		SystemInstruction: "You are Einstein.",
	})
	res, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var got chat.Response
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if got.Text != "Guten Tag!" || len(got.Sources) != 1 {
		t.Fatalf("response = %+v, want gateway result relayed", got)
	}
	if gw.lastReq.Prompt != "hello" {
		t.Fatalf("gateway prompt = %q, want request body passed through", gw.lastReq.Prompt)
	}
}

func TestChatRecordsTranscript(t *testing.T) {
	gw := &stubChatGateway{resp: chat.Response{Text: "A reply.", Sources: []chat.Source{}}}
	_, ts := newTestServer(t, config.Config{}, gw, &stubSpeechGateway{})

	payload, _ := json.Marshal(chat.Request{Prompt: "remember me"})
	res, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	res.Body.Close()

	listRes, err := http.Get(ts.URL + "/v1/transcripts?limit=10")
	if err != nil {
		t.Fatalf("transcripts request error = %v", err)
	}
	defer listRes.Body.Close()

	var body struct {
		Transcripts []transcript.Record `json:"transcripts"`
	}
	if err := json.NewDecoder(listRes.Body).Decode(&body); err != nil {
		t.Fatalf("decode transcripts: %v", err)
	}
	if len(body.Transcripts) != 1 {
		t.Fatalf("transcripts = %+v, want one record", body.Transcripts)
	}
	rec := body.Transcripts[0]
	if rec.Prompt != "remember me" || rec.Reply != "A reply." || rec.Grounded {
		t.Fatalf("record = %+v, want prompt/reply captured, ungrounded", rec)
	}
}

func TestSpeechSuccessReturnsAudio(t *testing.T) {
	gw := &stubSpeechGateway{audio: speech.Audio{Data: []byte("mp3-bytes"), ContentType: "audio/mpeg"}}
	_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, gw)

	res, err := http.Post(ts.URL+"/speech", "application/json", bytes.NewReader([]byte(`{"text":"hi","voice_id":"v1"}`)))
	if err != nil {
		t.Fatalf("speech request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("Content-Type = %q, want audio/mpeg", ct)
	}
	data, _ := io.ReadAll(res.Body)
	if !bytes.Equal(data, []byte("mp3-bytes")) {
		t.Fatalf("body = %q, want raw audio", data)
	}
	if gw.lastReq.VoiceID != "v1" {
		t.Fatalf("voice id = %q, want v1", gw.lastReq.VoiceID)
	}
}

func TestSpeechAcceptsCamelCaseVoiceID(t *testing.T) {
	gw := &stubSpeechGateway{audio: speech.Audio{Data: []byte("x"), ContentType: "audio/mpeg"}}
	_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, gw)

	res, err := http.Post(ts.URL+"/speech", "application/json", bytes.NewReader([]byte(`{"text":"hi","voiceId":"camel"}`)))
	if err != nil {
		t.Fatalf("speech request error = %v", err)
	}
	res.Body.Close()
	if gw.lastReq.VoiceID != "camel" {
		t.Fatalf("voice id = %q, want voiceId alias honored", gw.lastReq.VoiceID)
	}
}

func TestSpeechErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not configured",
			err:        speech.ErrNotConfigured,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "speech_unconfigured",
		},
		{
			name:       "no voice available",
			err:        speech.ErrNoVoiceAvailable,
			wantStatus: http.StatusBadGateway,
			wantCode:   "no_voice_available",
		},
		{
			name:       "rejection mirrors upstream status",
			err:        &speech.RejectedError{Status: 401, Body: `{"detail":"bad key"}`},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "provider_rejected",
		},
		{
			name:       "rejection hides upstream 500",
			err:        &speech.RejectedError{Status: 500, Body: "boom"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "provider_rejected",
		},
		{
			name:       "unreachable",
			err:        fmt.Errorf("call elevenlabs: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "provider_unreachable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubSpeechGateway{err: tc.err}
			_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, gw)

			res, err := http.Post(ts.URL+"/speech", "application/json", bytes.NewReader([]byte(`{"text":"hi"}`)))
			if err != nil {
				t.Fatalf("speech request error = %v", err)
			}
			defer res.Body.Close()
			if res.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tc.wantStatus)
			}

			var body errorResponse
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tc.wantCode)
			}
		})
	}
}

func TestSpeechRejectionPreservesUpstreamBody(t *testing.T) {
	const upstream = `{"detail":{"status":"quota_exceeded"}}`
	gw := &stubSpeechGateway{err: &speech.RejectedError{Status: 429, Body: upstream}}
	_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, gw)

	res, err := http.Post(ts.URL+"/speech", "application/json", bytes.NewReader([]byte(`{"text":"hi"}`)))
	if err != nil {
		t.Fatalf("speech request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 mirrored", res.StatusCode)
	}

	var body errorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != upstream {
		t.Fatalf("error detail = %q, want verbatim upstream body", body.Error)
	}
}

func TestTranscriptsRejectsInvalidLimit(t *testing.T) {
	_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, &stubSpeechGateway{})

	res, err := http.Get(ts.URL + "/v1/transcripts?limit=-3")
	if err != nil {
		t.Fatalf("transcripts request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	cfg := config.Config{AllowAnyOrigin: true}
	_, ts := newTestServer(t, cfg, &stubChatGateway{}, &stubSpeechGateway{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	req.Header.Set("Origin", "https://app.example")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("Allow-Origin = %q, want origin mirrored", got)
	}
}

func TestCORSRejectsForeignOriginByDefault(t *testing.T) {
	_, ts := newTestServer(t, config.Config{}, &stubChatGateway{}, &stubSpeechGateway{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request error = %v", err)
	}
	defer res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin = %q, want no CORS grant for foreign origin", got)
	}
}
