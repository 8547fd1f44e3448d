package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	svr    *http.Server
	logger *zap.Logger
}

// Start serves the default prometheus registry on addr in the background.
func Start(addr string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		svr: &http.Server{
			Handler:           mux,
			Addr:              addr,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}

	go func() {
		logger.Info("Metrics server listening", zap.String("address", addr))
		if err := s.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped unexpectedly", zap.Error(err))
		}
	}()

	return s
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.svr.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to stop metrics server", zap.Error(err))
	}
}
