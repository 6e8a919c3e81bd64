package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumipallolabs/storviz/internal/scanner"
)

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Workers != scanner.DefaultWorkers {
		t.Errorf("workers = %d, want %d", cfg.Scan.Workers, scanner.DefaultWorkers)
	}
	if cfg.Server.Listen == "" {
		t.Error("expected default listen address")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.BatchSize != scanner.DefaultBatchSize {
		t.Errorf("batch size = %d, want default", cfg.Scan.BatchSize)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
scan:
  workers: 2
  flush_interval: 250ms
  one_filesystem: true
  exclude:
    - "**/node_modules"
server:
  listen: ":9000"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Scan.Workers)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("listen = %s, want :9000", cfg.Server.Listen)
	}
	// Unset keys keep their defaults
	if cfg.Scan.BatchSize != scanner.DefaultBatchSize {
		t.Errorf("batch size = %d, want default", cfg.Scan.BatchSize)
	}
	if cfg.Report.Top != 10 {
		t.Errorf("report top = %d, want 10", cfg.Report.Top)
	}

	opts, err := cfg.ScanOptions()
	if err != nil {
		t.Fatalf("ScanOptions() error = %v", err)
	}
	if opts.FlushInterval != 250*time.Millisecond {
		t.Errorf("flush interval = %v, want 250ms", opts.FlushInterval)
	}
	if !opts.OneFilesystem {
		t.Error("expected one_filesystem")
	}
	if len(opts.Exclude) != 1 || opts.Exclude[0] != "**/node_modules" {
		t.Errorf("exclude = %v", opts.Exclude)
	}
}

func TestLoadConfig_BadDuration(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("scan:\n  flush_interval: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Error("expected error for invalid flush_interval")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("scan: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestMinSizeBytes(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"1MB", 1000 * 1000},
		{"512 KiB", 512 * 1024},
		{"42", 42},
	}
	for _, tt := range tests {
		cfg.Report.MinSize = tt.in
		got, err := cfg.MinSizeBytes()
		if err != nil {
			t.Errorf("MinSizeBytes(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MinSizeBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	cfg.Report.MinSize = "lots"
	if _, err := cfg.MinSizeBytes(); err == nil {
		t.Error("expected error for invalid size")
	}
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	if filepath.Base(p) != "config.yaml" || filepath.Base(filepath.Dir(p)) != ".storviz" {
		t.Errorf("DefaultPath() = %s", p)
	}
}
