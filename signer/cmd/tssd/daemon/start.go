package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/lightningnetwork/lnd/signal"
	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/log"
	"github.com/talos-labs/staking-wallet/signer/config"
	"github.com/talos-labs/staking-wallet/signer/service"
)

func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Threshold Signer Daemon",
		Long:  "Start the Threshold Signer Daemon and run it until shutdown.",
		RunE:  startFn,
	}

	cmd.Flags().String(rpcListenerFlag, "", "The address that the RPC server listens to")

	return cmd
}

func startFn(cmd *cobra.Command, _ []string) error {
	homePath, err := getHomePath(cmd)
	if err != nil {
		return fmt.Errorf("failed to load home flag: %w", err)
	}

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load config at %s: %w", homePath, err)
	}

	rpcListener, err := cmd.Flags().GetString(rpcListenerFlag)
	if err != nil {
		return fmt.Errorf("failed to get RPC listener flag: %w", err)
	}
	if rpcListener != "" {
		if _, err := net.ResolveTCPAddr("tcp", rpcListener); err != nil {
			return fmt.Errorf("invalid RPC listener address %s: %w", rpcListener, err)
		}
		cfg.RPCListener = rpcListener
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to load the logger: %w", err)
	}

	localSigner, err := newLocalSigner(cfg, homePath, logger)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	dbBackend, err := cfg.DatabaseConfig.GetDBBackend()
	if err != nil {
		return fmt.Errorf("failed to create db backend: %w", err)
	}

	// Hook interceptor for os signals.
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		return fmt.Errorf("failed to set up shutdown interceptor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-shutdownInterceptor.ShutdownChannel()
		cancel()
	}()

	tssServer, err := service.NewSignerServer(cfg, logger, localSigner, dbBackend)
	if err != nil {
		return err
	}

	return tssServer.RunUntilShutdown(ctx)
}
