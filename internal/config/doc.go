// Package config loads, normalizes, and validates fetchd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FETCHD_RPC_SECRET environment
// fallback. Download defaults are expressed as option strings and are checked
// with the same validator the RPC layer uses, so a config that loads is one
// the daemon can apply.
package config
