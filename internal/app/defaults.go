package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TIMECAPSULE_CONFIG_PATH: config file location (default: ~/.config/timecapsule.toml)
//   - TIMECAPSULE_HOME: base directory for timecapsule data (default: ~/.timecapsule)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking TIMECAPSULE_CONFIG_PATH
// first, then falling back to the default ~/.config/timecapsule.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("TIMECAPSULE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "timecapsule.toml"), nil
}

// getBaseDir returns the base directory for timecapsule data, checking
// TIMECAPSULE_HOME first, then falling back to ~/.timecapsule.
func getBaseDir() (string, error) {
	if path := os.Getenv("TIMECAPSULE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".timecapsule"), nil
}
