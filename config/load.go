package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/contractgen/errors"
)

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
)

// SystemConfigPath is the lowest-precedence config file.
var SystemConfigPath = "/etc/contractgen/config.toml"

// Load reads the contractgen configuration using Viper
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, without
// environment overrides.
func LoadFromFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("config file %s", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// system -> user -> project, env vars stay on top
	for _, source := range Sources() {
		if !source.Exists {
			continue
		}
		fileViper := viper.New()
		fileViper.SetConfigFile(source.Path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}
		_ = v.MergeConfigMap(fileViper.AllSettings())
	}

	viperInstance = v
	return v
}

// Source is one config file of the cascade.
type Source struct {
	Name   string // system, user or project
	Path   string
	Exists bool
}

// Sources lists the config files in precedence order, lowest first.
func Sources() []Source {
	paths := []Source{{Name: "system", Path: SystemConfigPath}}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, Source{Name: "user", Path: filepath.Join(home, ".contractgen", "config.toml")})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, Source{Name: "project", Path: project})
	}
	for i := range paths {
		if _, err := os.Stat(paths[i].Path); err == nil {
			paths[i].Exists = true
		}
	}
	return paths
}

// findProjectConfig searches for contractgen.toml by walking up the directory tree
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// IsSet reports whether key has a value from any source
func IsSet(key string) bool {
	return GetViper().IsSet(key)
}
