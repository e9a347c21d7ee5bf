// Package config loads, validates, and normalizes av1ify configuration.
//
// Configuration lives in a TOML file (default ~/.config/av1ify/config.toml)
// and is merged over repository defaults. All path fields are expanded
// (~ resolution) and made absolute during load.
package config
