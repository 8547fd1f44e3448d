package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/signer/config"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	homePath := t.TempDir()

	cfg := config.DefaultConfigWithHomePath(homePath)
	cfg.LogLevel = "debug"
	require.NoError(t, config.WriteConfig(cfg, homePath))

	loaded, err := config.LoadConfig(homePath)
	require.NoError(t, err)
	require.Equal(t, "debug", loaded.LogLevel)
	require.Equal(t, cfg.RPCListener, loaded.RPCListener)
	require.Equal(t, cfg.DatabaseConfig.DBFile(), loaded.DatabaseConfig.DBFile())
	require.Equal(t, filepath.Join(homePath, "mnemonic.txt"), loaded.MnemonicPath(homePath))
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(t.TempDir())
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	homePath := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{"valid config", func(*config.Config) {}, ""},
		{"empty listener", func(cfg *config.Config) { cfg.RPCListener = "" }, "RPC listener address cannot be empty"},
		{"empty mnemonic file", func(cfg *config.Config) { cfg.MnemonicFile = "" }, "mnemonic file cannot be empty"},
		{"nil db config", func(cfg *config.Config) { cfg.DatabaseConfig = nil }, "database config cannot be empty"},
		{"nil metrics", func(cfg *config.Config) { cfg.Metrics = nil }, "metrics configuration cannot be empty"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.DefaultConfigWithHomePath(homePath)
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
