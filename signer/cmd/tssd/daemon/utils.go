package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/config"
	"github.com/talos-labs/staking-wallet/util"
)

func getHomePath(cmd *cobra.Command) (string, error) {
	rawPath, err := cmd.Flags().GetString(homeFlag)
	if err != nil {
		return "", err
	}

	cleanPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", err
	}

	return util.CleanAndExpandPath(cleanPath), nil
}

func loadMnemonic(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read mnemonic file %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}

func newLocalSigner(cfg *config.Config, homePath string, logger *zap.Logger) (*signer.LocalSigner, error) {
	mnemonic, err := loadMnemonic(cfg.MnemonicPath(homePath))
	if err != nil {
		return nil, err
	}

	return signer.NewLocalSigner(mnemonic, cfg.Passphrase, logger)
}
