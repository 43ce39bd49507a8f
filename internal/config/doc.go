// Package config defines the runtime configuration of the application and
// loads it from an optional file.
//
// Configuration is layered: defaults, then the config file (HCL, TOML or
// YAML, chosen by extension), then environment overrides, then CLI flags.
// NewConfig validates the merged result.
package config
