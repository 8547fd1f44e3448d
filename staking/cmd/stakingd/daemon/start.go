package daemon

import (
	"fmt"
	"net"

	"github.com/juju/fslock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/log"
	"github.com/talos-labs/staking-wallet/staking/config"
	"github.com/talos-labs/staking-wallet/staking/service"
)

func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Staking Daemon",
		Long:  "Start the Staking Daemon and serve its HTTP API until shutdown.",
		RunE:  startFn,
	}

	cmd.Flags().String(apiListenerFlag, "", "The address that the HTTP API server listens to")

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

	apiListener, err := cmd.Flags().GetString(apiListenerFlag)
	if err != nil {
		return fmt.Errorf("failed to get API listener flag: %w", err)
	}
	if apiListener != "" {
		if _, err := net.ResolveTCPAddr("tcp", apiListener); err != nil {
			return fmt.Errorf("invalid API listener address %s: %w", apiListener, err)
		}
		cfg.APIListener = apiListener
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to load the logger: %w", err)
	}

	// one daemon per database
	lockFile := config.LockFile(homePath)
	lock := fslock.New(lockFile)
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("failed to acquire file system lock (%s), is another stakingd running? %w", lockFile, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Error("failed to release file system lock", zap.String("path", lockFile), zap.Error(err))
		}
	}()

	dbBackend, err := cfg.DatabaseConfig.GetDBBackend()
	if err != nil {
		return fmt.Errorf("failed to create db backend: %w", err)
	}

	app, err := service.NewStakingAppFromConfig(cfg, dbBackend, logger)
	if err != nil {
		_ = dbBackend.Close()
		return fmt.Errorf("failed to create staking app: %w", err)
	}

	return service.NewStakingServer(cfg, logger, app, dbBackend).RunUntilShutdown(cmd.Context())
}
