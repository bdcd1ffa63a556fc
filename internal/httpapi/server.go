// Package httpapi exposes the batch pipeline over HTTP: submission, polling,
// push status streaming and artifact download.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/titrolabs/srt-batch-translator/internal/intake"
	"github.com/titrolabs/srt-batch-translator/internal/notify"
	"github.com/titrolabs/srt-batch-translator/internal/status"
)

type Server struct {
	intake   *intake.Service
	status   *status.Service
	registry notify.Registry

	uploadsDir     string
	maxUploadBytes int64

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithMaxUploadBytes caps how much of a multipart request is held in memory
// while parsing.
func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

func NewServer(in *intake.Service, st *status.Service, registry notify.Registry, uploadsDir string, opts ...Option) *Server {
	s := &Server{
		intake:         in,
		status:         st,
		registry:       registry,
		uploadsDir:     uploadsDir,
		maxUploadBytes: 32 << 20,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/batches", s.handleSubmit)
	s.mux.HandleFunc("/api/status/", s.handleStatus)
	s.mux.HandleFunc("/downloads/", s.handleDownload)
}
