package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagQuiet   = flag.Bool("quiet", false, "Disable console logging")
	flagWorkers = flag.Int("workers", -1, "Geometries resolved in parallel (0 = all CPUs)")
	flagShading = flag.String("shading", "", "Normal shading policy: flat or smooth")
	flagLegacy  = flag.Bool("legacy", false, "Write the headerless legacy dump layout")
	flagWeld    = flag.Bool("weld", false, "Merge identical vertices when exporting")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
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
	if *flagQuiet {
		cfg.Logging.Quiet = true
	}
	if *flagWorkers >= 0 {
		cfg.Flatten.Workers = *flagWorkers
	}
	if *flagShading != "" {
		cfg.Flatten.Shading = *flagShading
	}
	if *flagLegacy {
		cfg.Export.Legacy = true
	}
	if *flagWeld {
		cfg.Export.Weld = true
	}
}
