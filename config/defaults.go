package config

import (
	"github.com/spf13/viper"

	"github.com/teranos/contractgen/contract"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Generator defaults
	v.SetDefault("generator.output_dir", ".")
	v.SetDefault("generator.file_extension", "mdsl")
	v.SetDefault("generator.api_version", "")
	v.SetDefault("generator.endpoint_location", contract.DefaultEndpointLocation)
	v.SetDefault("generator.default_protocol", contract.DefaultProtocol)
	v.SetDefault("generator.contexts", []string{})

	// Watch defaults
	v.SetDefault("watch.debounce_ms", 300)                  // editors write in bursts
	v.SetDefault("watch.max_regenerations_per_minute", 30) // 0 = unlimited

	v.SetDefault("log.json", false)
}
