package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagRoot      = flag.String("root", "", "Project root directory")
	flagFormat    = flag.String("format", "", "Output format (tscn, yaml)")
	flagTemplates = flag.String("templates", "", "Template directory relative to the project root")
	flagWorkers   = flag.Int("workers", 0, "Parallel imports in batch mode")
	flagOverlaps  = flag.Bool("overlaps", false, "Warn about overlapping static colliders")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRoot != "" {
		cfg.Project.Root = *flagRoot
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
	if *flagTemplates != "" {
		cfg.Project.TemplatesDir = *flagTemplates
	}
	if *flagWorkers > 0 {
		cfg.Import.Workers = *flagWorkers
	}
	if *flagOverlaps {
		cfg.Import.CheckOverlaps = true
	}
}
