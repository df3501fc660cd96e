package config

import (
	"reflect"
	"testing"
)

func TestMergeFromFlags_Input(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-input", "episode.mkv"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Input != "episode.mkv" {
		t.Errorf("Expected input 'episode.mkv', got '%s'", cfg.Input)
	}
}

func TestMergeFromFlags_PositionalInput(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-verbose", "episode.mkv"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Input != "episode.mkv" {
		t.Errorf("Expected input 'episode.mkv', got '%s'", cfg.Input)
	}

	// -input wins over the positional argument
	cfg = DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-input", "a.mkv", "b.mkv"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Input != "a.mkv" {
		t.Errorf("Expected input 'a.mkv', got '%s'", cfg.Input)
	}
}

func TestMergeFromFlags_MissingInput(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-verbose"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Validation should fail
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation error for missing input, got nil")
	}
}

func TestMergeFromFlags_AllFlags(t *testing.T) {
	args := []string{
		"-input", "flag_input.mkv",
		"-no-ordered-chapters",
		"-ordered-chapters-files", "list.txt",
		"-files", "op.mkv, ed.mkv,,",
		"-chapter-merge-threshold", "250",
		"-edition", "2",
		"-mkvmerge", "/opt/mkv/mkvmerge",
		"-mkvextract", "/opt/mkv/mkvextract",
		"-ffmpeg", "/opt/ffmpeg",
		"-edl", "out.edl",
		"-ffconcat", "out.ffconcat",
		"-ffmetadata", "out.ffmeta",
		"-render", "out.mkv",
		"-keep-scripts",
		"-log-level", "warn",
		"-verbose",
		"-dry-run",
	}

	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags(args); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Input != "flag_input.mkv" {
		t.Errorf("Expected input 'flag_input.mkv', got '%s'", cfg.Input)
	}
	if cfg.OrderedChapters {
		t.Error("Expected ordered chapters disabled")
	}
	if cfg.OrderedChaptersFiles != "list.txt" {
		t.Errorf("Expected file list 'list.txt', got '%s'", cfg.OrderedChaptersFiles)
	}
	if !reflect.DeepEqual(cfg.Files, []string{"op.mkv", "ed.mkv"}) {
		t.Errorf("Expected files [op.mkv ed.mkv], got %v", cfg.Files)
	}
	if cfg.ChapterMergeThreshold != 250 {
		t.Errorf("Expected threshold 250, got %d", cfg.ChapterMergeThreshold)
	}
	if cfg.Edition != 2 {
		t.Errorf("Expected edition 2, got %d", cfg.Edition)
	}
	if cfg.Tools.Mkvmerge != "/opt/mkv/mkvmerge" || cfg.Tools.Mkvextract != "/opt/mkv/mkvextract" || cfg.Tools.FFmpeg != "/opt/ffmpeg" {
		t.Errorf("Unexpected tools: %+v", cfg.Tools)
	}
	want := ExportConfig{EDL: "out.edl", FFConcat: "out.ffconcat", FFMetadata: "out.ffmeta", Render: "out.mkv", KeepScripts: true}
	if cfg.Export != want {
		t.Errorf("Expected exports %+v, got %+v", want, cfg.Export)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn', got '%s'", cfg.LogLevel)
	}
	if !cfg.Verbose || !cfg.DryRun {
		t.Error("Expected verbose and dry run to be set")
	}
}

func TestMergeFromFlags_PartialOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChapterMergeThreshold = 40
	cfg.Edition = 1
	cfg.Files = []string{"file.mkv"}

	if err := cfg.MergeFromFlags([]string{"-input", "episode.mkv"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Values not given as flags keep what was there
	if cfg.ChapterMergeThreshold != 40 {
		t.Errorf("Expected threshold 40, got %d", cfg.ChapterMergeThreshold)
	}
	if cfg.Edition != 1 {
		t.Errorf("Expected edition 1, got %d", cfg.Edition)
	}
	if len(cfg.Files) != 1 {
		t.Errorf("Expected files to be kept, got %v", cfg.Files)
	}
	if !cfg.OrderedChapters {
		t.Error("Expected ordered chapters to stay enabled")
	}
}

func TestMergeFromFlags_ExplicitZeroes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Edition = 3

	if err := cfg.MergeFromFlags([]string{"-chapter-merge-threshold", "0", "-edition", "-1"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.ChapterMergeThreshold != 0 {
		t.Errorf("Expected threshold 0, got %d", cfg.ChapterMergeThreshold)
	}
	if cfg.Edition != -1 {
		t.Errorf("Expected edition -1, got %d", cfg.Edition)
	}
}

func TestMergeFromFlags_UnknownFlag(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-workers", "8"}); err == nil {
		t.Fatal("Expected error for unknown flag, got nil")
	}
}

func TestMergeFromFlags_FFprobe(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Tools.FFprobe != "ffprobe" {
		t.Errorf("Expected default ffprobe, got '%s'", cfg.Tools.FFprobe)
	}

	if err := cfg.MergeFromFlags([]string{"-ffprobe", "/opt/ffprobe"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Tools.FFprobe != "/opt/ffprobe" {
		t.Errorf("Expected '/opt/ffprobe', got '%s'", cfg.Tools.FFprobe)
	}

	if err := cfg.MergeFromFlags([]string{"-no-verify"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Tools.FFprobe != "" {
		t.Errorf("Expected -no-verify to clear ffprobe, got '%s'", cfg.Tools.FFprobe)
	}
	if err := cfg.Tools.Validate(); err != nil {
		t.Errorf("Empty ffprobe should be valid: %v", err)
	}
}
