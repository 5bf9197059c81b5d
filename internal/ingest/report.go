package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Record statuses
const (
	StatusPublished = "published"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusInvalid   = "invalid"
	StatusFailed    = "failed"
)

// RecordResult is the outcome of one listed photo or album
type RecordResult struct {
	ID     string `yaml:"id"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
}

// Summary describes one run
type Summary struct {
	RunID      string    `yaml:"runid"`
	Username   string    `yaml:"username"`
	Source     string    `yaml:"source"`
	StartedAt  time.Time `yaml:"startedat"`
	FinishedAt time.Time `yaml:"finishedat"`

	Pages     int `yaml:"pages"`
	Listed    int `yaml:"listed"`
	Published int `yaml:"published"`
	Unchanged int `yaml:"unchanged"`
	Skipped   int `yaml:"skipped"`
	Invalid   int `yaml:"invalid"`
	Failed    int `yaml:"failed"`

	// Filtered counts albums dropped by the in / nin lists
	Filtered int `yaml:"filtered,omitempty"`

	ExifDegraded    int `yaml:"exifdegraded"`
	GeocodeDegraded int `yaml:"geocodedegraded"`

	Records []RecordResult `yaml:"records"`
}

func (s *Summary) record(id, status string, err error) {
	r := RecordResult{ID: id, Status: status}
	if err != nil {
		r.Error = err.Error()
	}
	s.Records = append(s.Records, r)
}

func (s *Summary) skip(id string, err error) {
	s.Skipped++
	s.record(id, StatusSkipped, err)
}

func (s *Summary) invalid(id string, err error) {
	s.Invalid++
	s.record(id, StatusInvalid, err)
}

func (s *Summary) fail(id string, err error) {
	s.Failed++
	s.record(id, StatusFailed, err)
}

// Duration is how long the run took
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SaveYAML writes the summary to path, creating parent directories
func (s *Summary) SaveYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadSummary reads a report written by SaveYAML
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &s, nil
}
