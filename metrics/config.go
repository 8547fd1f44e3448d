package metrics

import (
	"fmt"
	"net"
	"strconv"
)

const (
	defaultMetricsPort    = 2112
	defaultTssMetricsPort = 2113
	defaultMetricsHost    = "127.0.0.1"
)

// Config defines the server's config
type Config struct {
	Host string `long:"host" description:"IP of the Prometheus server"`
	Port int    `long:"port" description:"Port of the Prometheus server"`
}

func (cfg *Config) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	ip := net.ParseIP(cfg.Host)
	if ip == nil {
		return fmt.Errorf("invalid host: %v", cfg.Host)
	}

	return nil
}

func (cfg *Config) Address() (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), nil
}

func DefaultStakingConfig() *Config {
	return &Config{
		Port: defaultMetricsPort,
		Host: defaultMetricsHost,
	}
}

func DefaultTssConfig() *Config {
	return &Config{
		Port: defaultTssMetricsPort,
		Host: defaultMetricsHost,
	}
}
