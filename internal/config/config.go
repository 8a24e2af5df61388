// Package config handles importer configuration loading and management.
package config

import "runtime"

// Config holds all importer settings.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Output  OutputConfig  `yaml:"output"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProjectConfig describes the engine project the scenes are written into.
type ProjectConfig struct {
	Root           string `yaml:"root"`            // Directory maps and tilesets are read from
	ResourcePrefix string `yaml:"resource_prefix"` // Prefix for resource paths in written scenes
	TemplatesDir   string `yaml:"templates_dir"`   // Object type templates, relative to Root
}

// OutputConfig holds scene encoding settings.
type OutputConfig struct {
	Format string `yaml:"format"` // tscn or yaml
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	Workers       int  `yaml:"workers"`
	ShareTileSets bool `yaml:"share_tilesets"`
	CheckOverlaps bool `yaml:"check_overlaps"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:           ".",
			ResourcePrefix: "res://",
			TemplatesDir:   "templates",
		},
		Output: OutputConfig{
			Format: "tscn",
		},
		Import: ImportConfig{
			Workers:       runtime.NumCPU(),
			ShareTileSets: false,
			CheckOverlaps: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
