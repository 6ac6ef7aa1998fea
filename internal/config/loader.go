package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the research file name searched for by FindConfigFile.
const DefaultConfigFile = ".deepcrawl.yaml"

// xdgConfigFile is the research file name inside the XDG config directory.
const xdgConfigFile = "research.yaml"

// LoadConfigFile loads a research file from a YAML document.
// If the file does not exist, it returns ErrConfigNotFound.
// Unknown keys are rejected so that typos in category fields surface early.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a research file.
func ParseConfig(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse research file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the research file in the following order:
//  1. configPath, if specified
//  2. .deepcrawl.yaml in the current directory
//  3. research.yaml in the XDG config directory
//  4. .deepcrawl.yaml in the user's home directory
//
// It returns an empty string when no file is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadResearch resolves the research file for a run.
//
// An explicit configPath must exist. Without one, the first file found by
// FindConfigFile is used. In both cases the built-in presets are added
// for topic names the file does not define. When no file is found the
// presets alone are returned.
func LoadResearch(configPath string) (*File, string, error) {
	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return BuiltinFile(), "", nil
	}

	f, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return f.WithPresets(), path, nil
}
