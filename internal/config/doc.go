// Package config loads, normalizes, and validates Gleaner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and GLEANER_DATABANK_API_KEY. The Config type centralizes every
// knob the daemon and CLI need, so data directories, source endpoints, and
// upload credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
