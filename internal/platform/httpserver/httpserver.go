package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	HTTP *http.Server
	log  *zap.Logger
}

// Options configures New. Zero timeouts fall back to defaults sized for
// small JSON request/response traffic.
type Options struct {
	Addr         string
	Router       chi.Router
	Logger       *zap.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func New(opts Options) *Server {
	if opts.Router == nil {
		opts.Router = chi.NewRouter()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	// net/http's own errors (TLS handshakes, panics outside chi) go to zap too.
	errLog, err := zap.NewStdLogAt(opts.Logger.Named("http"), zap.WarnLevel)
	if err != nil {
		errLog = zap.NewStdLog(opts.Logger)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          errLog,
	}
	return &Server{HTTP: srv, log: opts.Logger}
}

// Start blocks serving HTTP; it returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Info("http server starting", zap.String("addr", s.HTTP.Addr))
	return s.HTTP.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
