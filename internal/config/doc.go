// Package config loads and validates the TOML configuration consumed by all
// Curator components. Values are read once at startup and treated as
// immutable afterwards.
package config
