package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadConfig loads configuration from os.Args with priority:
// CLI flags > Config file > Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigArgs(os.Args[1:])
}

// LoadConfigArgs is LoadConfig for an explicit argument list.
func LoadConfigArgs(args []string) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Check if -config flag was provided (quick parse to extract it)
	configPath := configFlag(args)

	// If no config flag, try to find config file in standard locations
	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Load config file if found
	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		// Merge file config (overwrites defaults)
		cfg = fileCfg
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromFlags(args); err != nil {
		return nil, err
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configFlag(args []string) string {
	for i, arg := range args {
		switch {
		case (arg == "-config" || arg == "--config") && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
