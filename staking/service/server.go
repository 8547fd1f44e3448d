package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/staking/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server is the main daemon construct for stakingd. It serves the HTTP API
// and the metrics of the app until shutdown.
type Server struct {
	started *atomic.Bool

	cfg    *config.Config
	logger *zap.Logger

	app *StakingApp
	db  kvdb.Backend
}

func NewStakingServer(cfg *config.Config, l *zap.Logger, app *StakingApp, db kvdb.Backend) *Server {
	return &Server{
		started: atomic.NewBool(false),
		cfg:     cfg,
		logger:  l,
		app:     app,
		db:      db,
	}
}

// RunUntilShutdown runs the API server until ctx is done.
func (s *Server) RunUntilShutdown(ctx context.Context) error {
	if s.started.Swap(true) {
		return fmt.Errorf("the staking server is already running")
	}

	promAddr, err := s.cfg.Metrics.Address()
	if err != nil {
		return fmt.Errorf("failed to get prometheus address: %w", err)
	}
	metricsServer := metrics.Start(promAddr, s.logger)

	defer func() {
		s.logger.Info("Shutdown complete")
	}()

	defer func() {
		if err := s.app.Stop(); err != nil {
			s.logger.Error("Failed to stop the staking app", zap.Error(err))
		}
		s.logger.Info("Closing database...")
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		} else {
			s.logger.Info("Database closed")
		}
		metricsServer.Stop(context.Background())
		s.logger.Info("Metrics server stopped")
	}()

	lis, err := net.Listen("tcp", s.cfg.APIListener)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.APIListener, err)
	}

	httpServer := &http.Server{
		Handler:           NewAPIHandler(s.app, s.logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.String("address", lis.Addr().String()))
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	s.logger.Info("Staking Daemon is fully active!")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shut down the API server", zap.Error(err))
	}

	return nil
}
