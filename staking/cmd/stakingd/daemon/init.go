package daemon

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/talos-labs/staking-wallet/staking/config"
	"github.com/talos-labs/staking-wallet/util"
)

func NewInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the stakingd home directory.",
		RunE:  initHome,
	}

	addInitFlags(initCmd.Flags())

	return initCmd
}

func addInitFlags(fs *pflag.FlagSet) {
	fs.Bool(forceFlag, false, "Override existing configuration")
	fs.String(networkFlag, "", "The bitcoin network written to the config (mainnet|testnet|signet|regtest)")
}

func initHome(cmd *cobra.Command, _ []string) error {
	homePath, err := getHomePath(cmd)
	if err != nil {
		return fmt.Errorf("failed to get home path: %w", err)
	}
	force, err := cmd.Flags().GetBool(forceFlag)
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	network, err := cmd.Flags().GetString(networkFlag)
	if err != nil {
		return fmt.Errorf("failed to get network flag: %w", err)
	}

	if util.FileExists(homePath) && !force {
		return fmt.Errorf("home path %s already exists", homePath)
	}

	for _, dir := range []string{homePath, config.LogDir(homePath), config.DataDir(homePath)} {
		if err := util.MakeDirectory(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg := config.DefaultConfigWithHome(homePath)
	if network != "" {
		if _, err := config.NetParams(network); err != nil {
			return err
		}
		cfg.Network = network
	}

	if err := config.WriteConfig(cfg, homePath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cmd.Printf("Config written to %s\n", config.CfgFile(homePath))

	return nil
}
