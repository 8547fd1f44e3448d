package daemon

import (
	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/signer/config"
	"github.com/talos-labs/staking-wallet/version"
)

const BinaryName = "tssd"

// NewRootCmd creates a new root command for tssd. It is called once in the main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           BinaryName,
		Short:         "A daemon program for deriving keys and signing digests of staking wallets (tssd).",
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String(homeFlag, config.DefaultTssdDir, "The application home directory")

	rootCmd.AddCommand(
		NewInitCmd(),
		NewStartCmd(),
		NewShowKeyCmd(),
		version.CommandVersion(BinaryName),
	)

	return rootCmd
}
