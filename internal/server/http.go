package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/config"
)

// HTTPService runs the API's http.Server as a lifecycle Service with
// graceful shutdown.
type HTTPService struct {
	logger          *zap.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService builds an HTTP service from the server configuration.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		logger: logger,
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start listens and serves until Stop is called.
//
// Postcondition: Returns nil on graceful shutdown, the listen error
// otherwise.
func (s *HTTPService) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests up to the configured shutdown timeout.
func (s *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}
