package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/lumipallolabs/storviz/internal/scanner"
)

type Scan struct {
	Workers       int      `yaml:"workers"`
	CheckEvery    int      `yaml:"check_every"`
	BatchSize     int      `yaml:"batch_size"`
	FlushInterval string   `yaml:"flush_interval"`
	OneFilesystem bool     `yaml:"one_filesystem"`
	Exclude       []string `yaml:"exclude"`
}

type Server struct {
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Report controls the summary printed after a non-interactive scan
type Report struct {
	Top     int    `yaml:"top"`
	MinSize string `yaml:"min_size"`
}

type Config struct {
	Scan   Scan   `yaml:"scan"`
	Server Server `yaml:"server"`
	Report Report `yaml:"report"`
}

func DefaultConfig() *Config {
	return &Config{
		Scan: Scan{
			Workers:       scanner.DefaultWorkers,
			CheckEvery:    scanner.DefaultCheckEvery,
			BatchSize:     scanner.DefaultBatchSize,
			FlushInterval: scanner.DefaultFlushInterval.String(),
		},
		Server: Server{
			Listen:      "127.0.0.1:7878",
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Report: Report{
			Top:     10,
			MinSize: "1MB",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file or
// an empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if _, err := cfg.ScanOptions(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.MinSizeBytes(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".storviz", "config.yaml")
}

// ScanOptions converts the scan section to walker options
func (c *Config) ScanOptions() (scanner.Options, error) {
	opts := scanner.Options{
		Workers:       c.Scan.Workers,
		CheckEvery:    c.Scan.CheckEvery,
		BatchSize:     c.Scan.BatchSize,
		OneFilesystem: c.Scan.OneFilesystem,
		Exclude:       c.Scan.Exclude,
	}

	if c.Scan.FlushInterval != "" {
		d, err := time.ParseDuration(c.Scan.FlushInterval)
		if err != nil {
			return scanner.Options{}, fmt.Errorf("flush_interval: %w", err)
		}
		opts.FlushInterval = d
	}

	return opts, nil
}

// MinSizeBytes parses report.min_size, e.g. "1MB" or "512 KiB"
func (c *Config) MinSizeBytes() (int64, error) {
	if c.Report.MinSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Report.MinSize)
	if err != nil {
		return 0, fmt.Errorf("min_size: %w", err)
	}
	return int64(n), nil
}
