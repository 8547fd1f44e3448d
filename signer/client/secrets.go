package client

import (
	"fmt"
	"os"
	"strings"
)

const (
	// EnvPrefix marks a reference to an environment variable, e.g. env:TSS_HMAC_KEY
	EnvPrefix = "env:"
	// FilePrefix marks a reference to a file holding the key, e.g. file:/run/secrets/hmac
	FilePrefix = "file:"

	// HMACKeyEnvVar is consulted when no key is configured
	HMACKeyEnvVar = "HMAC_KEY"
)

// GetSecretValue resolves a secret reference. Plain values are returned as is.
func GetSecretValue(reference string) (string, error) {
	switch {
	case reference == "":
		return "", nil
	case strings.HasPrefix(reference, EnvPrefix):
		name := strings.TrimPrefix(reference, EnvPrefix)
		value, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return value, nil
	case strings.HasPrefix(reference, FilePrefix):
		path := strings.TrimPrefix(reference, FilePrefix)
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return reference, nil
	}
}

// ProcessHMACKey resolves the configured HMAC key, falling back to the
// HMAC_KEY environment variable.
func ProcessHMACKey(hmacKey string) (string, error) {
	if hmacKey == "" {
		return os.Getenv(HMACKeyEnvVar), nil
	}

	return GetSecretValue(hmacKey)
}
