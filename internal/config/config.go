// Package config loads project configuration from leapapp.yaml. It is
// decoupled from CLI concerns so other tools can load project settings the
// same way.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapapp.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapapp.yml"

// envPrefix namespaces environment overrides: LEAPAPP_MODULES_DIR etc.
const envPrefix = "LEAPAPP_"

// Output formats for diagnostics.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ProjectConfig holds the project settings.
type ProjectConfig struct {
	// ModulesDir is where .leap sources live, relative to the project root
	ModulesDir string `koanf:"modules_dir"`
	// Strict makes lint violations fatal during build
	Strict bool `koanf:"strict"`
	// Output selects the diagnostics format: auto, text, json, yaml
	Output string `koanf:"output"`
}

// Validate checks the configuration values.
func (c *ProjectConfig) Validate() error {
	switch c.Output {
	case OutputAuto, OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, json or yaml)", c.Output)
	}
}

func defaults() map[string]any {
	return map[string]any{
		"modules_dir": "modules",
		"strict":      false,
		"output":      OutputAuto,
	}
}

// LoadFromDir loads the project config from dir, layering defaults, an
// optional leapapp.yaml(.yml), and LEAPAPP_ environment overrides. A missing
// config file is not an error: defaults plus env still apply.
func LoadFromDir(dir string) (*ProjectConfig, error) {
	return Load(dir, nil)
}

// Load is LoadFromDir plus an optional flag layer on top: flags the user
// actually set override everything else. Kebab-case flag names map to
// snake_case config keys.
func Load(dir string, flags *pflag.FlagSet) (*ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	if configPath := findConfigFile(dir); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, err
		}
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from startDir to the first directory containing
// leapapp.yaml or leapapp.yml. Returns empty string if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
