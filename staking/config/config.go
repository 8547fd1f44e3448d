package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/client"
	"github.com/talos-labs/staking-wallet/util"
)

const (
	defaultLogLevel       = zapcore.InfoLevel
	defaultLogFormat      = "auto"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "stakingd.log"
	defaultConfigFileName = "stakingd.conf"
	defaultLockFileName   = "stakingd.lock"
	defaultDataDirname    = "data"
	defaultNetwork        = "signet"
	DefaultAPIPort        = 8280
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.stakingd on Linux
	//   ~/Users/<username>/Library/Application Support/Stakingd on MacOS
	DefaultStakingdDir = btcutil.AppDataDir("stakingd", false)

	DefaultAPIListener = "127.0.0.1:" + strconv.Itoa(DefaultAPIPort)
)

// Config is the main config for the stakingd cli command
type Config struct {
	LogLevel    string `long:"loglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	LogFormat   string `long:"logformat" description:"Format of the log output" choice:"auto" choice:"json" choice:"console" choice:"logfmt"`
	Network     string `long:"network" description:"The bitcoin network the custody addresses are derived for" choice:"mainnet" choice:"testnet" choice:"signet" choice:"regtest"`
	KeyID       string `long:"keyid" description:"The threshold key used when a request does not name one" choice:"dfx_test_key" choice:"test_key_1" choice:"key_1"`
	APIListener string `long:"apilistener" description:"the listener for HTTP API connections, e.g., 127.0.0.1:8280"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Signer *client.Config `group:"signer" namespace:"signer"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) *Config {
	cfg := &Config{
		LogLevel:       defaultLogLevel.String(),
		LogFormat:      defaultLogFormat,
		Network:        defaultNetwork,
		KeyID:          signer.KeyIDTestKey1.String(),
		APIListener:    DefaultAPIListener,
		DatabaseConfig: DefaultDBConfigWithHomePath(homePath),
		Signer:         client.DefaultConfig(),
		Metrics:        metrics.DefaultStakingConfig(),
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() *Config {
	return DefaultConfigWithHome(DefaultStakingdDir)
}

func CfgFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LockFile(homePath string) string {
	return filepath.Join(homePath, defaultLockFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func DataDir(homePath string) string {
	return filepath.Join(homePath, defaultDataDirname)
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
func LoadConfig(homePath string) (*Config, error) {
	cfgFile := CfgFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	var cfg Config
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func WriteConfig(cfg *Config, homePath string) error {
	fileParser := flags.NewParser(cfg, flags.Default)

	return flags.NewIniParser(fileParser).WriteFile(CfgFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults)
}

// Validate checks the given configuration to be sane. An unknown key id is
// fatal, it is never replaced by a default.
func (cfg *Config) Validate() error {
	if _, err := NetParams(cfg.Network); err != nil {
		return err
	}

	if _, err := signer.ParseKeyID(cfg.KeyID); err != nil {
		return fmt.Errorf("invalid keyid: %w", err)
	}

	if cfg.APIListener == "" {
		return fmt.Errorf("API listener address cannot be empty")
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("database config cannot be empty")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("database configuration validation failed: %w", err)
	}

	if cfg.Signer == nil {
		return fmt.Errorf("signer config cannot be empty")
	}
	if err := cfg.Signer.Validate(); err != nil {
		return fmt.Errorf("signer configuration validation failed: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("metrics configuration cannot be empty")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics configuration validation failed: %w", err)
	}

	return nil
}

func (cfg *Config) NetParams() *chaincfg.Params {
	p, err := NetParams(cfg.Network)
	if err != nil {
		panic(err)
	}

	return p
}

func (cfg *Config) DefaultKeyID() signer.KeyID {
	return signer.MustParseKeyID(cfg.KeyID)
}

func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
