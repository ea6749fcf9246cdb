package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"journalAnalytics/internal/risk"
)

// LoadHeuristics reads risk heuristic thresholds from a YAML file.
// Keys missing from the file keep their default value; an empty path returns the defaults.
func LoadHeuristics(path string) (risk.Config, error) {
	cfg := risk.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return risk.Config{}, fmt.Errorf("failed to read heuristics file '%s': %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return risk.Config{}, fmt.Errorf("failed to parse heuristics file '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return risk.Config{}, fmt.Errorf("invalid heuristics file '%s': %w", path, err)
	}
	return cfg, nil
}
