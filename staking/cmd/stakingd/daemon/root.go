package daemon

import (
	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/staking/config"
	"github.com/talos-labs/staking-wallet/version"
)

const BinaryName = "stakingd"

// NewRootCmd creates a new root command for stakingd. It is called once in the main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           BinaryName,
		Short:         "A daemon program for custodial BTC staking wallets (stakingd).",
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String(homeFlag, config.DefaultStakingdDir, "The application home directory")

	rootCmd.AddCommand(
		NewInitCmd(),
		NewStartCmd(),
		NewDecodeLockTxCmd(),
		NewDeriveBytesCmd(),
		version.CommandVersion(BinaryName),
	)

	return rootCmd
}
