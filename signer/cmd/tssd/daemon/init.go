package daemon

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/config"
	"github.com/talos-labs/staking-wallet/util"
)

func NewInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the tssd home directory and its master mnemonic.",
		RunE:  initHome,
	}

	initCmd.Flags().Bool(forceFlag, false, "Override existing configuration")
	initCmd.Flags().Bool(recoverFlag, false, "Read an existing mnemonic from stdin instead of generating one")

	return initCmd
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
	recoverMnemonic, err := cmd.Flags().GetBool(recoverFlag)
	if err != nil {
		return fmt.Errorf("failed to get recover flag: %w", err)
	}

	if util.FileExists(homePath) && !force {
		return fmt.Errorf("home path %s already exists", homePath)
	}

	for _, dir := range []string{homePath, config.LogDir(homePath), config.DataDir(homePath)} {
		if err := util.MakeDirectory(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg := config.DefaultConfigWithHomePath(homePath)
	if err := config.WriteConfig(cfg, homePath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	mnemonicPath := cfg.MnemonicPath(homePath)
	if util.FileExists(mnemonicPath) && !force {
		cmd.Printf("Keeping existing mnemonic at %s\n", mnemonicPath)
		return nil
	}

	var mnemonic string
	if recoverMnemonic {
		cmd.Println("Enter the master mnemonic:")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read mnemonic: %w", err)
		}
		mnemonic = strings.TrimSpace(line)
		if !bip39.IsMnemonicValid(mnemonic) {
			return fmt.Errorf("invalid mnemonic")
		}
	} else {
		mnemonic, err = signer.NewMnemonic()
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(mnemonicPath, []byte(mnemonic+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write mnemonic file: %w", err)
	}

	cmd.Printf("Master mnemonic written to %s\n", mnemonicPath)
	cmd.Println("Back it up, it is the only way to recover the staking wallets.")

	return nil
}
