// Package config loads segskip configuration from TOML.
//
// Load resolves the config path (explicit flag, ~/.config/segskip/config.toml,
// then ./segskip.toml), decodes it over Default(), expands paths, applies
// environment overrides, and validates the result. CreateSample writes the
// embedded sample so `segskip config init` has something to start from.
package config
