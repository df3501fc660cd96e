package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mkvlink.yaml")

	yamlContent := `
input: "episode.mkv"
ordered_chapters: false
files:
  - "/mnt/extras/op.mkv"
  - "/mnt/extras/ed.mkv"
chapter_merge_threshold: 250
edition: 1
tools:
  mkvmerge: "/opt/mkvtoolnix/mkvmerge"
export:
  edl: "episode.edl"
log_level: "warn"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Input != "episode.mkv" {
		t.Errorf("Expected input 'episode.mkv', got '%s'", cfg.Input)
	}
	if cfg.OrderedChapters {
		t.Error("Expected ordered chapters disabled")
	}
	if !reflect.DeepEqual(cfg.Files, []string{"/mnt/extras/op.mkv", "/mnt/extras/ed.mkv"}) {
		t.Errorf("Unexpected files: %v", cfg.Files)
	}
	if cfg.ChapterMergeThreshold != 250 {
		t.Errorf("Expected threshold 250, got %d", cfg.ChapterMergeThreshold)
	}
	if cfg.Edition != 1 {
		t.Errorf("Expected edition 1, got %d", cfg.Edition)
	}
	if cfg.Tools.Mkvmerge != "/opt/mkvtoolnix/mkvmerge" {
		t.Errorf("Expected mkvmerge path from file, got '%s'", cfg.Tools.Mkvmerge)
	}
	// Unset nested values keep their defaults
	if cfg.Tools.Mkvextract != "mkvextract" {
		t.Errorf("Expected default mkvextract, got '%s'", cfg.Tools.Mkvextract)
	}
	if cfg.Export.EDL != "episode.edl" {
		t.Errorf("Expected EDL 'episode.edl', got '%s'", cfg.Export.EDL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn', got '%s'", cfg.LogLevel)
	}
}

func TestLoadConfigFile_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mkvlink.toml")

	tomlContent := `
input = "episode.mkv"
files = ["op.mkv"]
chapter_merge_threshold = 0
edition = 2

[tools]
ffmpeg = "/usr/local/bin/ffmpeg"

[export]
render = "flat.mkv"
keep_scripts = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Input != "episode.mkv" {
		t.Errorf("Expected input 'episode.mkv', got '%s'", cfg.Input)
	}
	if cfg.ChapterMergeThreshold != 0 {
		t.Errorf("Expected threshold 0, got %d", cfg.ChapterMergeThreshold)
	}
	if cfg.Edition != 2 {
		t.Errorf("Expected edition 2, got %d", cfg.Edition)
	}
	if cfg.Tools.FFmpeg != "/usr/local/bin/ffmpeg" {
		t.Errorf("Expected ffmpeg path from file, got '%s'", cfg.Tools.FFmpeg)
	}
	if cfg.Export.Render != "flat.mkv" || !cfg.Export.KeepScripts {
		t.Errorf("Unexpected export config: %+v", cfg.Export)
	}
	if !cfg.OrderedChapters {
		t.Error("Expected ordered chapters default to be kept")
	}
}

func TestLoadConfigFile_NotFound(t *testing.T) {
	_, err := LoadConfigFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "bad.yaml", "edition: [unclosed\n"},
		{"yaml type", "bad.yml", "chapter_merge_threshold: lots\n"},
		{"toml", "bad.toml", "edition = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			if _, err := LoadConfigFile(path); err == nil {
				t.Error("Expected error for invalid config, got nil")
			}
		})
	}
}

func TestSaveConfigFile(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.Input = "episode.mkv"
			cfg.Files = []string{"op.mkv"}
			cfg.Edition = 3
			cfg.Export.FFMetadata = "chapters.txt"

			if err := SaveConfigFile(cfg, path); err != nil {
				t.Fatalf("Failed to save config: %v", err)
			}

			loaded, err := LoadConfigFile(path)
			if err != nil {
				t.Fatalf("Failed to load saved config: %v", err)
			}
			if !reflect.DeepEqual(cfg, loaded) {
				t.Errorf("Round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".mkvlink")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(want, []byte("edition = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
