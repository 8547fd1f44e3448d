package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/signer/client"
	"github.com/talos-labs/staking-wallet/util"
)

const (
	defaultLogLevel       = zapcore.InfoLevel
	defaultLogFormat      = "auto"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "tssd.log"
	defaultConfigFileName = "tssd.conf"
	defaultMnemonicFile   = "mnemonic.txt"
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.tssd on Linux
	//   ~/Users/<username>/Library/Application Support/Tssd on MacOS
	DefaultTssdDir = btcutil.AppDataDir("tssd", false)

	DefaultRPCListener = "127.0.0.1:" + strconv.Itoa(client.DefaultRPCPort)
)

// Config is the main config for the tssd cli command
type Config struct {
	LogLevel     string `long:"loglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	LogFormat    string `long:"logformat" description:"Format of the log output" choice:"auto" choice:"json" choice:"console" choice:"logfmt"`
	MnemonicFile string `long:"mnemonicfile" description:"The file holding the master mnemonic, relative to the home directory unless absolute"`
	Passphrase   string `long:"passphrase" description:"The BIP39 passphrase applied to the master mnemonic"`
	HMACKey      string `long:"hmackey" description:"The HMAC key for authentication of signer requests. If not provided, will use HMAC_KEY environment variable."`
	RPCListener  string `long:"rpclistener" description:"the listener for RPC connections, e.g., 127.0.0.1:1234"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHomePath(homePath string) *Config {
	cfg := &Config{
		LogLevel:       defaultLogLevel.String(),
		LogFormat:      defaultLogFormat,
		MnemonicFile:   defaultMnemonicFile,
		RPCListener:    DefaultRPCListener,
		DatabaseConfig: DefaultDBConfigWithHomePath(homePath),
		Metrics:        metrics.DefaultTssConfig(),
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() *Config {
	return DefaultConfigWithHomePath(DefaultTssdDir)
}

func CfgFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
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

// MnemonicPath resolves the mnemonic file against the home directory.
func (cfg *Config) MnemonicPath(homePath string) string {
	if filepath.IsAbs(cfg.MnemonicFile) {
		return cfg.MnemonicFile
	}
	return filepath.Join(homePath, cfg.MnemonicFile)
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

// WriteConfig writes the config with its defaults and descriptions to the
// config file of the home directory.
func WriteConfig(cfg *Config, homePath string) error {
	fileParser := flags.NewParser(cfg, flags.Default)

	return flags.NewIniParser(fileParser).WriteFile(CfgFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults)
}

// Validate checks the given configuration to be sane.
func (cfg *Config) Validate() error {
	if cfg.RPCListener == "" {
		return fmt.Errorf("RPC listener address cannot be empty")
	}
	if cfg.MnemonicFile == "" {
		return fmt.Errorf("mnemonic file cannot be empty")
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("database config cannot be empty")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("database configuration validation failed: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("metrics configuration cannot be empty")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics configuration validation failed: %w", err)
	}

	return nil
}
