// Package file provides a TOML-backed configuration store.
// Configuration lives under the user's canopy directory (~/.canopy) and is
// flattened into dot-notation keys for lookup.
package file
