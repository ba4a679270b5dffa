package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads the settings for processing meshPath with priority:
// defaults < file < flags. meshPath may be empty.
func Load(meshPath string) (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile(meshPath)
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configCandidates lists config files in lookup order: settings for one mesh
// (rock.obj -> rock.lod.yaml), settings for the mesh's directory, the working
// directory, then the user config dir.
func configCandidates(meshPath string) []string {
	var candidates []string
	if meshPath != "" {
		dir := filepath.Dir(meshPath)
		base := strings.TrimSuffix(filepath.Base(meshPath), filepath.Ext(meshPath))
		candidates = append(candidates,
			filepath.Join(dir, base+".lod.yaml"),
			filepath.Join(dir, "lodtool.yaml"),
		)
	}
	return append(candidates,
		"lodtool.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	)
}

// findConfigFile returns the first existing candidate, or "".
func findConfigFile(meshPath string) string {
	for _, path := range configCandidates(meshPath) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MeshLOD")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MeshLOD")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshlod")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshlod")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// A levels list in the file replaces the default levels.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
