// Package config provides configuration structures and utilities for deepcrawl.
// It defines the run options populated from CLI flags, the YAML research file
// describing topics and their evidence categories, and the built-in presets.
package config
