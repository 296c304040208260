// Package server exposes the conversion pipelines over HTTP: upload
// endpoints for images and videos, artifact listing and retrieval,
// and a websocket that receives converted video frames.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/textmode/img2txt"
	"github.com/textmode/img2txt/imageutil"
	"github.com/textmode/img2txt/internal/config"
	"github.com/textmode/img2txt/videoutil"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	// formMemoryLimit is how much of a parsed multipart body stays in
	// memory before spilling to disk. The actual size cap is
	// AppConfig.MaxUploadBytes, applied to the body reader.
	formMemoryLimit = 32 << 20
)

// Server handles conversion requests and frame broadcasting.
type Server struct {
	cfg        config.AppConfig
	upgrader   websocket.Upgrader
	httpClient *http.Client
	clients    map[*websocket.Conn]*sync.Mutex
	mu         sync.Mutex

	// openVideo is swappable so tests can serve synthetic streams
	// without an OpenCV runtime.
	openVideo func(path string) (img2txt.FrameSource, func() error, error)
}

// conversionResponse is the JSON reply for the convert endpoints.
type conversionResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	ASCIIArt   string  `json:"ascii_art,omitempty"`
	OutputURL  string  `json:"output_url,omitempty"`
	FrameCount int     `json:"frame_count,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
}

// New creates a Server for the given configuration.
func New(cfg config.AppConfig) *Server {
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clients:    make(map[*websocket.Conn]*sync.Mutex),
		openVideo: func(path string) (img2txt.FrameSource, func() error, error) {
			capture, err := videoutil.Open(path)
			if err != nil {
				return nil, nil, err
			}
			return capture, capture.Close, nil
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/presets", s.handlePresets)
	mux.HandleFunc("/convert/image", s.handleConvertImage)
	mux.HandleFunc("/convert/video", s.handleConvertVideo)
	mux.HandleFunc("/convert/url", s.handleConvertURL)
	mux.HandleFunc("/outputs", s.handleListOutputs)
	mux.HandleFunc("/outputs/", s.handleOutputFile)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until the context is cancelled.
func Run(ctx context.Context, cfg config.AppConfig) error {
	srv := New(cfg)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	return httpServer.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"presets":     img2txt.Presets,
		"description": "Available character set presets for glyph conversion",
	})
}

// paramsFromForm builds conversion parameters from request form
// fields: detail_level, charset_preset, ramp, sensitivity, sharpen.
func paramsFromForm(r *http.Request) (img2txt.Params, error) {
	opts := []img2txt.Option{}

	if v := r.FormValue("detail_level"); v != "" {
		detail, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return img2txt.Params{}, fmt.Errorf("%w: bad detail_level %q",
				img2txt.ErrInvalidParameters, v)
		}
		opts = append(opts, img2txt.WithDetailLevel(detail))
	}
	if v := r.FormValue("sensitivity"); v != "" {
		sensitivity, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return img2txt.Params{}, fmt.Errorf("%w: bad sensitivity %q",
				img2txt.ErrInvalidParameters, v)
		}
		opts = append(opts, img2txt.WithSensitivity(sensitivity))
	}
	if v := r.FormValue("ramp"); v != "" {
		opts = append(opts, img2txt.WithRamp(img2txt.RampFromString(v)))
	} else if v := r.FormValue("charset_preset"); v != "" {
		ramp, err := img2txt.RampFromPreset(v)
		if err != nil {
			return img2txt.Params{}, err
		}
		opts = append(opts, img2txt.WithRamp(ramp))
	}
	if r.FormValue("sharpen") == "true" {
		opts = append(opts, img2txt.WithSharpen(true))
	}

	return img2txt.NewParams(opts...)
}

// parseUpload caps the request body at MaxUploadBytes and parses the
// multipart form. It must run before any FormValue call: FormValue's
// implicit parse would otherwise read an unbounded body.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemoryLimit); err != nil {
		return fmt.Errorf("%w: %v", img2txt.ErrInvalidSource, err)
	}
	return nil
}

// stageUpload copies the uploaded file to a temp path so file-backed
// decoders can seek it. The caller removes it when done.
func (s *Server) stageUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%w: missing %q upload", img2txt.ErrInvalidSource, field)
	}
	defer file.Close()

	return copyToTemp(file, filepath.Ext(header.Filename))
}

func copyToTemp(file multipart.File, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "img2txt-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *Server) handleConvertImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		writeError(w, err)
		return
	}

	params, err := paramsFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tmpPath, err := s.stageUpload(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(tmpPath)

	img, err := imageutil.LoadImage(tmpPath)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", img2txt.ErrInvalidSource, err))
		return
	}

	grid, err := img2txt.ConvertImage(img, params)
	if err != nil {
		writeError(w, err)
		return
	}

	s.respondWithGrid(w, grid, r.FormValue("output_format"))
}

// respondWithGrid replies with a converted grid, either inline as text
// or persisted as a rendered PNG artifact.
func (s *Server) respondWithGrid(w http.ResponseWriter, grid img2txt.TextGrid, format string) {
	if format == "image" {
		name := fmt.Sprintf("ascii_%d.png", time.Now().UnixNano())
		path := filepath.Join(s.cfg.OutputDir, name)
		if err := img2txt.SaveGridPNG(grid, path, img2txt.RasterOptions{}); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, conversionResponse{
			Success:   true,
			Message:   "Image converted to rendered PNG",
			OutputURL: "/outputs/" + name,
		})
		return
	}

	writeJSON(w, conversionResponse{
		Success:  true,
		Message:  "Image converted to text",
		ASCIIArt: grid.String(),
	})
}

// handleConvertURL fetches an image over HTTP and converts it with the
// same parameter and output options as the upload endpoint.
func (s *Server) handleConvertURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := paramsFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rawURL := r.FormValue("url")
	if rawURL == "" {
		writeError(w, fmt.Errorf("%w: missing url parameter", img2txt.ErrInvalidSource))
		return
	}

	img, err := s.fetchImage(r.Context(), rawURL)
	if err != nil {
		writeError(w, err)
		return
	}

	grid, err := img2txt.ConvertImage(img, params)
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondWithGrid(w, grid, r.FormValue("output_format"))
}

// fetchImage downloads and decodes a remote image, applying the same
// size cap as uploads.
func (s *Server) fetchImage(ctx context.Context, rawURL string) (*imageutil.RGBAImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bad url: %v", img2txt.ErrInvalidSource, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", img2txt.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch returned %s", img2txt.ErrSourceUnavailable, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", img2txt.ErrSourceUnavailable, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: remote file exceeds %d bytes",
			img2txt.ErrInvalidSource, s.cfg.MaxUploadBytes)
	}

	img, err := imageutil.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", img2txt.ErrInvalidSource, err)
	}
	return img, nil
}

func (s *Server) handleConvertVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		writeError(w, err)
		return
	}

	params, err := paramsFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if params.Workers == 0 && s.cfg.Workers > 1 {
		params.Workers = s.cfg.Workers
	}

	targetRate := 10.0
	if v := r.FormValue("frame_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 1 || rate > 60 {
			writeError(w, fmt.Errorf("%w: frame_rate must be in [1, 60]",
				img2txt.ErrInvalidParameters))
			return
		}
		targetRate = rate
	}

	tmpPath, err := s.stageUpload(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(tmpPath)

	src, closeSrc, err := s.openVideo(tmpPath)
	if err != nil {
		writeError(w, err)
		return
	}

	seq, err := s.convertWithTimeout(src, closeSrc, targetRate, params)
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcastFrames(seq)

	name, err := s.writeSequenceArtifact(seq, r.FormValue("output_format"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, conversionResponse{
		Success:    true,
		Message:    "Video converted",
		OutputURL:  "/outputs/" + name,
		FrameCount: len(seq.Frames),
		FrameRate:  seq.Rate,
	})
}

// convertWithTimeout bounds the wall-clock time of one video
// conversion. The pipeline itself has no cancellation points, so on
// timeout the conversion goroutine drains in the background and its
// result is discarded. The goroutine owns closeSrc: the source is
// released only after ConvertVideo has stopped reading it, never by
// the handler while a read may be in flight.
func (s *Server) convertWithTimeout(src img2txt.FrameSource, closeSrc func() error, rate float64, params img2txt.Params) (img2txt.FrameSequence, error) {
	if s.cfg.ConvertTimeout <= 0 {
		defer closeSrc()
		return img2txt.ConvertVideo(src, rate, params)
	}

	type result struct {
		seq img2txt.FrameSequence
		err error
	}
	done := make(chan result, 1)
	go func() {
		seq, err := img2txt.ConvertVideo(src, rate, params)
		_ = closeSrc()
		done <- result{seq, err}
	}()

	select {
	case res := <-done:
		return res.seq, res.err
	case <-time.After(s.cfg.ConvertTimeout):
		return img2txt.FrameSequence{}, fmt.Errorf("conversion exceeded %s", s.cfg.ConvertTimeout)
	}
}

// writeSequenceArtifact persists the sequence in the requested format
// and returns the artifact file name.
func (s *Server) writeSequenceArtifact(seq img2txt.FrameSequence, format string) (string, error) {
	stamp := time.Now().UnixNano()

	var name string
	switch format {
	case "cbor":
		name = fmt.Sprintf("ascii_video_%d.cbor", stamp)
	case "zstd":
		name = fmt.Sprintf("ascii_video_%d.txt.zst", stamp)
	default:
		name = fmt.Sprintf("ascii_video_%d.txt", stamp)
	}

	f, err := os.Create(filepath.Join(s.cfg.OutputDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()

	switch format {
	case "cbor":
		err = seq.EncodeCBOR(f)
	case "zstd":
		err = seq.WriteTextZstd(f)
	default:
		err = seq.WriteText(f)
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *Server) handleListOutputs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := os.ReadDir(s.cfg.OutputDir)
	if err != nil {
		http.Error(w, "failed to list outputs", http.StatusInternalServerError)
		return
	}

	files := []map[string]any{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, map[string]any{
			"filename": entry.Name(),
			"size":     info.Size(),
			"url":      "/outputs/" + entry.Name(),
		})
	}
	writeJSON(w, map[string]any{"files": files, "count": len(files)})
}

func (s *Server) handleOutputFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/outputs/")
	if name == "" || name != filepath.Base(name) {
		http.Error(w, "bad file name", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)

	switch r.Method {
	case http.MethodGet:
		http.ServeFile(w, r, path)
	case http.MethodDelete:
		if err := os.Remove(path); err != nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"success": true, "message": name + " deleted"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the conversion error taxonomy to HTTP statuses:
// caller mistakes are 400s, everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, img2txt.ErrInvalidParameters) ||
		errors.Is(err, img2txt.ErrInvalidSource) ||
		errors.Is(err, img2txt.ErrSourceUnavailable) {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(conversionResponse{
		Success: false,
		Message: err.Error(),
	})
}
