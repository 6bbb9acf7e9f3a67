// Package config loads optional ebagen settings from settings.yaml in
// the working directory. A missing file is not an error: every setting
// has a default, and accessors are safe on a nil *Settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when settings.yaml is absent or a field is unset.
const (
	DefaultOutput    = "ebafiles"
	DefaultChunkSize = 30
	DefaultSloctl    = "sloctl"
)

// Settings holds ebagen configuration from settings.yaml.
type Settings struct {
	// Output is the root directory generated files are written under.
	Output string `yaml:"output"`
	// ChunkSize caps SLO filter entries per generated file.
	ChunkSize int `yaml:"chunkSize"`
	// Sloctl overrides the sloctl binary name or path.
	Sloctl string `yaml:"sloctl"`
	// NoColor disables styled terminal output.
	NoColor bool `yaml:"noColor"`
}

// Load reads settings.yaml relative to dir. Returns nil (not an error)
// if the file does not exist.
func Load(dir string) (*Settings, error) {
	path := filepath.Join(dir, "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &s, nil
}

// OutputDir returns the configured output root or the default.
func (s *Settings) OutputDir() string {
	if s == nil || s.Output == "" {
		return DefaultOutput
	}
	return s.Output
}

// Chunk returns the configured chunk size or the default.
func (s *Settings) Chunk() int {
	if s == nil || s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

// SloctlBinary returns the configured sloctl binary or the default.
func (s *Settings) SloctlBinary() string {
	if s == nil || s.Sloctl == "" {
		return DefaultSloctl
	}
	return s.Sloctl
}

// ColorDisabled reports whether styled output is turned off.
func (s *Settings) ColorDisabled() bool {
	return s != nil && s.NoColor
}
