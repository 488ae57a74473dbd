// Package config loads contractgen settings from TOML files and CONTRACTGEN_*
// environment variables.
package config

import "github.com/teranos/contractgen/contract"

// ProjectFileName is searched for upwards from the working directory.
const ProjectFileName = "contractgen.toml"

// EnvPrefix prefixes environment overrides, e.g. CONTRACTGEN_GENERATOR_OUTPUT_DIR.
const EnvPrefix = "CONTRACTGEN"

// Config represents the contractgen configuration
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator" yaml:"generator" json:"generator"`
	Watch     WatchConfig     `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`
	Log       LogConfig       `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// GeneratorConfig configures contract generation
type GeneratorConfig struct {
	OutputDir        string   `mapstructure:"output_dir" toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	FileExtension    string   `mapstructure:"file_extension" toml:"file_extension" yaml:"file_extension" json:"file_extension"` // without the dot
	APIVersion       string   `mapstructure:"api_version" toml:"api_version" yaml:"api_version" json:"api_version"`             // empty = no version line
	EndpointLocation string   `mapstructure:"endpoint_location" toml:"endpoint_location" yaml:"endpoint_location" json:"endpoint_location"`
	DefaultProtocol  string   `mapstructure:"default_protocol" toml:"default_protocol" yaml:"default_protocol" json:"default_protocol"`
	Contexts         []string `mapstructure:"contexts" toml:"contexts" yaml:"contexts" json:"contexts"` // empty = every exposing context
}

// WatchConfig configures the watch command
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`

	// 0 = unlimited
	MaxRegenerationsPerMinute int `mapstructure:"max_regenerations_per_minute" toml:"max_regenerations_per_minute" yaml:"max_regenerations_per_minute" json:"max_regenerations_per_minute"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
}

// ContractOptions returns the walker options of the generator settings.
func (c *Config) ContractOptions() contract.Options {
	return contract.Options{
		APIVersion:       c.Generator.APIVersion,
		EndpointLocation: c.Generator.EndpointLocation,
		DefaultProtocol:  c.Generator.DefaultProtocol,
	}
}
