package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxChapterMergeThreshold is the largest accepted merge threshold in
// milliseconds.
const MaxChapterMergeThreshold = 10000

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	// Required fields
	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else {
		// Check if input file exists
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
		}
	}

	if c.ChapterMergeThreshold < 0 || c.ChapterMergeThreshold > MaxChapterMergeThreshold {
		errors = append(errors, fmt.Sprintf("chapter merge threshold must be between 0 and %d ms", MaxChapterMergeThreshold))
	}

	if c.Edition < -1 {
		errors = append(errors, "edition cannot be below -1 (use -1 for the default edition)")
	}

	if c.OrderedChaptersFiles != "" {
		if _, err := os.Stat(c.OrderedChaptersFiles); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("ordered chapters file list does not exist: %s", c.OrderedChaptersFiles))
		}
	}

	if !IsValidLogLevel(c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
			c.LogLevel, strings.Join(LogLevelValues(), ", ")))
	}

	// Validate tools config
	if err := c.Tools.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("tools config: %v", err))
	}

	// Validate export config
	if err := c.Export.Validate(c.Input); err != nil {
		errors = append(errors, fmt.Sprintf("export config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if tools configuration is valid
func (tc *ToolsConfig) Validate() error {
	var errors []string

	if tc.Mkvmerge == "" {
		errors = append(errors, "mkvmerge is required")
	}
	if tc.Mkvextract == "" {
		errors = append(errors, "mkvextract is required")
	}
	if tc.FFmpeg == "" {
		errors = append(errors, "ffmpeg is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks that no two outputs share a path and that none overwrites
// the input.
func (ec *ExportConfig) Validate(input string) error {
	var errors []string

	seen := map[string]string{}
	if input != "" {
		seen[filepath.Clean(input)] = "input"
	}
	outputs := []struct{ name, path string }{
		{"edl", ec.EDL},
		{"ffconcat", ec.FFConcat},
		{"ffmetadata", ec.FFMetadata},
		{"render", ec.Render},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		key := filepath.Clean(o.path)
		if other, ok := seen[key]; ok {
			errors = append(errors, fmt.Sprintf("%s output %s collides with %s", o.name, o.path, other))
			continue
		}
		seen[key] = o.name
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
