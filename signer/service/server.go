package service

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/lightningnetwork/lnd/kvdb"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/client"
	"github.com/talos-labs/staking-wallet/signer/config"
	"github.com/talos-labs/staking-wallet/signer/proto"
	"github.com/talos-labs/staking-wallet/signer/store"
)

// Server is the main daemon construct for the threshold signer. It handles
// spinning up the RPC sever, the database, and any other components that the
// signing daemon needs to function.
type Server struct {
	started *atomic.Bool

	cfg    *config.Config
	logger *zap.Logger

	rpcServer *rpcServer
	hmacKey   string
	db        kvdb.Backend
}

// NewSignerServer creates a new server with the given config.
func NewSignerServer(cfg *config.Config, l *zap.Logger, s signer.ThresholdSigner, db kvdb.Backend) (*Server, error) {
	ss, err := store.NewSignStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate sign store: %w", err)
	}

	hmacKey, err := client.ProcessHMACKey(cfg.HMACKey)
	if err != nil {
		return nil, fmt.Errorf("failed to process HMAC key: %w", err)
	}
	if hmacKey == "" {
		l.Warn("HMAC key not configured, signer requests are not authenticated")
	}

	return &Server{
		started:   atomic.NewBool(false),
		cfg:       cfg,
		logger:    l,
		rpcServer: newRPCServer(s, ss, metrics.NewTssMetrics(), l),
		hmacKey:   hmacKey,
		db:        db,
	}, nil
}

// RunUntilShutdown runs the main signer server loop until a signal is
// received to shut down the process.
func (s *Server) RunUntilShutdown(ctx context.Context) error {
	if s.started.Swap(true) {
		return nil
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
		s.logger.Info("Closing database...")
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		} else {
			s.logger.Info("Database closed")
		}
		metricsServer.Stop(context.Background())
		s.logger.Info("Metrics server stopped")
	}()

	lis, err := net.Listen("tcp", s.cfg.RPCListener)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.RPCListener, err)
	}
	defer func() {
		_ = lis.Close()
	}()

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(proto.Codec{}),
		grpc.UnaryInterceptor(HMACUnaryServerInterceptor(s.hmacKey, s.logger)),
	)
	defer grpcServer.Stop()

	if err := s.rpcServer.RegisterWithGrpcServer(grpcServer); err != nil {
		return fmt.Errorf("failed to register gRPC server: %w", err)
	}

	s.startGrpcListen(grpcServer, []net.Listener{lis})

	s.logger.Info("Threshold Signer Daemon is fully active!")

	<-ctx.Done()

	return nil
}

// startGrpcListen starts the GRPC server on the passed listeners.
func (s *Server) startGrpcListen(grpcServer *grpc.Server, listeners []net.Listener) {
	var wg sync.WaitGroup

	for _, lis := range listeners {
		wg.Add(1)
		go func(lis net.Listener) {
			s.logger.Info("RPC server listening", zap.String("address", lis.Addr().String()))

			defer lis.Close()

			wg.Done()
			_ = grpcServer.Serve(lis)
		}(lis)
	}

	// Wait for gRPC servers to be up running.
	wg.Wait()
}
