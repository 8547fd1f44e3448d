package client

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DefaultRPCPort    = 15813
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultCacheSize  = 4096
)

var DefaultSignerAddress = "127.0.0.1:" + strconv.Itoa(DefaultRPCPort)

// Config configures the connection to the remote threshold signer.
type Config struct {
	Address    string        `long:"address" description:"The address of the remote threshold signer"`
	HMACKey    string        `long:"hmackey" description:"The HMAC key for authentication with tssd. Supports env:NAME and file:PATH references. If not provided, will use HMAC_KEY environment variable."`
	Timeout    time.Duration `long:"timeout" description:"The timeout of a single signer call"`
	MaxRetries uint          `long:"maxretries" description:"The maximum number of attempts of a signer call while the signer is unavailable"`
	RetryDelay time.Duration `long:"retrydelay" description:"The delay between signer call attempts"`
	CacheSize  int           `long:"cachesize" description:"The number of derived public keys cached in memory"`
}

func DefaultConfig() *Config {
	return &Config{
		Address:    DefaultSignerAddress,
		Timeout:    defaultTimeout,
		MaxRetries: defaultMaxRetries,
		RetryDelay: defaultRetryDelay,
		CacheSize:  defaultCacheSize,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Address == "" {
		return fmt.Errorf("signer address cannot be empty")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("signer timeout must be positive, got %v", cfg.Timeout)
	}
	if cfg.MaxRetries == 0 {
		return fmt.Errorf("signer max retries must be positive")
	}
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("signer cache size must be positive, got %d", cfg.CacheSize)
	}
	return nil
}
