package config

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/contractgen/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Generator.OutputDir) == "" {
		return errors.New("generator.output_dir cannot be empty (use \".\" for the working directory)")
	}

	ext := c.Generator.FileExtension
	if ext == "" {
		return errors.New("generator.file_extension cannot be empty")
	}
	if strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
		return errors.Newf("generator.file_extension must be a bare extension like \"mdsl\", got %q", ext)
	}

	// API version is optional; when set it has to be semver
	if c.Generator.APIVersion != "" {
		if _, err := semver.NewVersion(c.Generator.APIVersion); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "generator.api_version %q is not a semantic version", c.Generator.APIVersion),
				"use a version like 1.0.0")
		}
	}

	if c.Generator.EndpointLocation == "" {
		return errors.New("generator.endpoint_location cannot be empty")
	}
	if c.Generator.DefaultProtocol == "" {
		return errors.New("generator.default_protocol cannot be empty")
	}

	if c.Watch.DebounceMS <= 0 {
		return errors.Newf("watch.debounce_ms must be > 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MaxRegenerationsPerMinute < 0 {
		return errors.Newf("watch.max_regenerations_per_minute must be >= 0, got %d", c.Watch.MaxRegenerationsPerMinute)
	}

	return nil
}
