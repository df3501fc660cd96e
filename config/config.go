package config

import "time"

// Config holds all mkvlink configuration options
type Config struct {
	// Root file whose ordered chapters are resolved
	Input string `yaml:"input" toml:"input"`

	// Ordered chapter resolution
	OrderedChapters       bool     `yaml:"ordered_chapters" toml:"ordered_chapters"`
	OrderedChaptersFiles  string   `yaml:"ordered_chapters_files" toml:"ordered_chapters_files"` // Playlist of candidate files
	Files                 []string `yaml:"files" toml:"files"`                                   // Explicit candidate files
	ChapterMergeThreshold int      `yaml:"chapter_merge_threshold" toml:"chapter_merge_threshold"`
	Edition               int      `yaml:"edition" toml:"edition"` // -1 = auto

	// External tools
	Tools ToolsConfig `yaml:"tools" toml:"tools"`

	// Outputs
	Export ExportConfig `yaml:"export" toml:"export"`

	// Behavioral flags
	LogLevel string `yaml:"log_level" toml:"log_level"` // debug, info, warn, error
	Verbose  bool   `yaml:"verbose" toml:"verbose"`     // Shortcut for log_level debug
	DryRun   bool   `yaml:"dry_run" toml:"dry_run"`     // Resolve and report without writing outputs
}

// ToolsConfig holds paths of the external programs
type ToolsConfig struct {
	Mkvmerge   string `yaml:"mkvmerge" toml:"mkvmerge"`
	Mkvextract string `yaml:"mkvextract" toml:"mkvextract"`
	FFmpeg     string `yaml:"ffmpeg" toml:"ffmpeg"`
	FFprobe    string `yaml:"ffprobe" toml:"ffprobe"` // Checks rendered files; empty disables the check
}

// ExportConfig holds output paths. Empty paths are skipped.
type ExportConfig struct {
	EDL         string `yaml:"edl" toml:"edl"`                   // mpv EDL
	FFConcat    string `yaml:"ffconcat" toml:"ffconcat"`         // ffmpeg concat script
	FFMetadata  string `yaml:"ffmetadata" toml:"ffmetadata"`     // ffmpeg chapter metadata
	Render      string `yaml:"render" toml:"render"`             // Flattened Matroska file
	KeepScripts bool   `yaml:"keep_scripts" toml:"keep_scripts"` // Keep render scripts next to the output
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Required - must be provided by user
		Input: "",

		OrderedChapters:       true,
		ChapterMergeThreshold: 100,
		Edition:               -1, // Default edition of the file

		Tools: ToolsConfig{
			Mkvmerge:   "mkvmerge",
			Mkvextract: "mkvextract",
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
		},

		LogLevel: "info",
		Verbose:  false,
		DryRun:   false,
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	copy.Files = append([]string(nil), c.Files...)
	return &copy
}

// MergeThreshold returns the chapter merge threshold as a duration
func (c *Config) MergeThreshold() time.Duration {
	return time.Duration(c.ChapterMergeThreshold) * time.Millisecond
}

// EffectiveLogLevel returns the log level, taking Verbose into account
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

// HasExports reports whether any output is configured
func (c *Config) HasExports() bool {
	e := c.Export
	return e.EDL != "" || e.FFConcat != "" || e.FFMetadata != "" || e.Render != ""
}

// LogLevelValues returns valid log level values
func LogLevelValues() []string {
	return []string{"debug", "info", "warn", "warning", "error"}
}

// IsValidLogLevel checks if level is valid
func IsValidLogLevel(level string) bool {
	for _, valid := range LogLevelValues() {
		if level == valid {
			return true
		}
	}
	return false
}
