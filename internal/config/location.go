package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "CLIPLAY_CONFIG"

// GetConfigPath returns $CLIPLAY_CONFIG if set, else ~/.cliplay/config.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cliplay", "config"), nil
}
