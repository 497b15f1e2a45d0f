package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-nota/transcode/transcodetest"
	"github.com/RyanBlaney/sonido-nota/transcription"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

type stubTranscriber struct {
	result *transcription.TranscriptionResult
	err    error
	opts   transcription.Options
	source string
}

func (s *stubTranscriber) TranscribeBytes(ctx context.Context, data []byte, source string, opts transcription.Options) (*transcription.TranscriptionResult, error) {
	s.opts = opts
	s.source = source
	return s.result, s.err
}

func newRealServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Audio.FFmpegPath = "/nonexistent/ffmpeg"
	tr, err := transcription.NewTranscriberFromConfig(cfg)
	require.NoError(t, err)
	return New(tr, cfg.Server)
}

func uploadRequest(t *testing.T, target, field, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func toneWAV() []byte {
	samples := transcodetest.Tone(440, 0.6, 16000, 0.5)
	return transcodetest.PCM16WAV(samples, 1, 16000)
}

func TestHealth(t *testing.T) {
	srv := New(&stubTranscriber{}, config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(requestIDHeader), 6)
}

func TestTranscribeTone(t *testing.T) {
	srv := newRealServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/transcribe", "file", "a4.wav", toneWAV()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Tempo *float64 `json:"tempo"`
		Notes []struct {
			Pitch string  `json:"pitch"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notes, 1)
	assert.Equal(t, "A4", body.Notes[0].Pitch)
	assert.Greater(t, body.Notes[0].End, body.Notes[0].Start)
}

func TestTranscribeQuantizedTone(t *testing.T) {
	srv := newRealServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/transcribe?quantize=true&tempo=100", "file", "a4.wav", toneWAV()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100.0, body["tempo"])

	notes := body["notes"].([]any)
	require.Len(t, notes, 1)
	note := notes[0].(map[string]any)
	assert.Equal(t, "A4", note["pitch"])
	assert.Equal(t, "quarter", note["duration"])
	assert.NotContains(t, note, "start")
}

func TestTranscribeMIDI(t *testing.T) {
	srv := newRealServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/transcribe/midi", "file", "a4.wav", toneWAV()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/midi", rec.Header().Get("Content-Type"))

	s, err := smf.ReadFrom(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	var keys []uint8
	for _, ev := range s.Tracks[0] {
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			keys = append(keys, key)
		}
	}
	assert.Equal(t, []uint8{69}, keys)
}

func TestTranscribeOptionsForwarded(t *testing.T) {
	stub := &stubTranscriber{result: &transcription.TranscriptionResult{Notes: []transcription.NoteEvent{}}}
	srv := New(stub, config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/transcribe?quantize=1&tempo=92.5", "file", "../../take.wav", []byte("RIFF")))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, stub.opts.Quantize)
	assert.True(t, *stub.opts.Quantize)
	require.NotNil(t, stub.opts.TempoHint)
	assert.Equal(t, 92.5, *stub.opts.TempoHint)
	assert.Equal(t, "take.wav", stub.source)
	assert.JSONEq(t, `{"tempo":null,"notes":[]}`, rec.Body.String())
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		maxUpload int64
		req       func(t *testing.T) *http.Request
		status    int
	}{
		{
			name:   "missing file field",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe", "audio", "a.wav", toneWAV()) },
			status: http.StatusBadRequest,
		},
		{
			name:   "bad quantize",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe?quantize=maybe", "file", "a.wav", toneWAV()) },
			status: http.StatusBadRequest,
		},
		{
			name:   "bad tempo",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe?tempo=fast", "file", "a.wav", toneWAV()) },
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid tempo value",
			err:    transcription.ErrInvalidTempo,
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe?tempo=-3", "file", "a.wav", toneWAV()) },
			status: http.StatusBadRequest,
		},
		{
			name:   "internal failure",
			err:    errors.New("decoder exploded"),
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe/midi", "file", "a.wav", toneWAV()) },
			status: http.StatusInternalServerError,
		},
		{
			name:      "upload too large",
			maxUpload: 1024,
			req:       func(t *testing.T) *http.Request { return uploadRequest(t, "/transcribe", "file", "big.wav", make([]byte, 64<<10)) },
			status:    http.StatusRequestEntityTooLarge,
		},
		{
			name:   "wrong method",
			req:    func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/transcribe", nil) },
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTranscriber{err: tt.err, result: &transcription.TranscriptionResult{Notes: []transcription.NoteEvent{}}}
			serverConfig := config.DefaultConfig().Server
			if tt.maxUpload > 0 {
				serverConfig.MaxUploadBytes = tt.maxUpload
			}
			srv := New(stub, serverConfig)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, tt.req(t))

			assert.Equal(t, tt.status, rec.Code)
			if tt.err != nil {
				assert.Contains(t, rec.Body.String(), tt.err.Error())
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
			}
		})
	}
}

func TestEmptyUploadIsBadRequest(t *testing.T) {
	srv := newRealServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/transcribe", "file", "empty.wav", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := New(&stubTranscriber{}, config.DefaultConfig().Server)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	srv := New(&stubTranscriber{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
