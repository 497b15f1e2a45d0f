// Package server exposes transcription over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/midifile"
	"github.com/RyanBlaney/sonido-nota/transcode"
	"github.com/RyanBlaney/sonido-nota/transcription"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

const (
	uploadField     = "file"
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// errBadRequest marks malformed request parameters
var errBadRequest = errors.New("bad request")

// Transcriber is the part of transcription.Transcriber the server needs
type Transcriber interface {
	TranscribeBytes(ctx context.Context, data []byte, source string, opts transcription.Options) (*transcription.TranscriptionResult, error)
}

// Server serves the transcription endpoints
type Server struct {
	transcriber Transcriber
	config      config.ServerConfig
	midiOptions midifile.Options
	handler     http.Handler
	logger      logging.Logger
}

// New builds the router. Routes:
//
//	GET  /                 health check
//	POST /transcribe       multipart "file" -> JSON notes
//	POST /transcribe/midi  multipart "file" -> Standard MIDI File
//
// Both POST routes accept ?quantize=true and ?tempo=<bpm>.
func New(transcriber Transcriber, cfg config.ServerConfig) *Server {
	s := &Server{
		transcriber: transcriber,
		config:      cfg,
		midiOptions: midifile.DefaultOptions(),
		logger: logging.WithFields(logging.Fields{
			"component": "http_server",
		}),
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.tagRequest)
	router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	router.HandleFunc("/transcribe/midi", s.handleTranscribeMIDI).Methods(http.MethodPost)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": s.config.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// tagRequest gives every request a short id, echoed in a response header
// and attached to every log line written on its behalf
func (s *Server) tagRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		w.Header().Set(requestIDHeader, tag)

		ctx := logging.ContextWithFields(r.Context(), logging.Fields{
			"request_id": tag,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	result, ok := s.transcribe(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTranscribeMIDI(w http.ResponseWriter, r *http.Request) {
	result, ok := s.transcribe(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := midifile.Write(&buf, result, s.midiOptions); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="transcription.mid"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// transcribe reads the upload and runs the transcriber. On failure the
// error response has already been written.
func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) (*transcription.TranscriptionResult, bool) {
	opts, err := parseOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}

	result, err := s.transcriber.TranscribeBytes(r.Context(), data, filename, opts)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}

	s.logger.WithContext(r.Context()).Info("Request transcribed", logging.Fields{
		"file":  filename,
		"bytes": len(data),
		"notes": len(result.Notes),
	})
	return result, true
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: missing multipart field %q: %v", errBadRequest, uploadField, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		filename = "audio"
	}
	return data, filename, nil
}

func parseOptions(r *http.Request) (transcription.Options, error) {
	var opts transcription.Options
	query := r.URL.Query()

	if raw := query.Get("quantize"); raw != "" {
		quantize, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: quantize must be a boolean, got %q", errBadRequest, raw)
		}
		opts.Quantize = &quantize
	}

	if raw := query.Get("tempo"); raw != "" {
		tempo, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: tempo must be a number, got %q", errBadRequest, raw)
		}
		opts.TempoHint = &tempo
	}

	return opts, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logger := s.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error(err, "Transcription request failed")
	} else {
		logger.Warn("Transcription request rejected", logging.Fields{
			"status": status,
			"error":  err.Error(),
		})
	}

	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, transcode.ErrEmptyAudio),
		transcription.IsInputError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
