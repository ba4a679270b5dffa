package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagCompress   = flag.Bool("compress", false, "Share index buffers between pairs of levels")
	flagNoCompress = flag.Bool("no-compress", false, "Bake one index buffer per level")
	flagNormals    = flag.Bool("normals", false, "Use vertex normals in collapse costs")
	flagAsync      = flag.Bool("async", false, "Generate on the background queue")
	flagAuto       = flag.Bool("auto", false, "Pick levels from the mesh bounding radius")
	flagProfile    = flag.String("profile", "", "Replay collapse costs from a profile file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagCompress {
		cfg.Lod.Compression = true
	}
	if *flagNoCompress {
		cfg.Lod.Compression = false
	}
	if *flagNormals {
		cfg.Lod.VertexNormals = true
	}
	if *flagAsync {
		cfg.Lod.Async = true
	}
	if *flagAuto {
		cfg.Lod.Auto = true
	}
	if *flagProfile != "" {
		cfg.Lod.Profile = *flagProfile
	}
}
