// Package config loads, normalizes and validates stylebatch configuration.
//
// Settings come from a TOML file; a missing file yields the defaults. The
// typed accessors return values already checked by Validate, so callers
// can use them without re-parsing strings.
package config
