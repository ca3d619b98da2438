// Package config loads, validates and saves the generator settings in YAML:
// mirror order, fallback table, exclusions, overrides, and the metadata of
// the application whose manifests are produced.
package config
