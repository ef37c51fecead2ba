// Package config loads and validates the fragmill TOML configuration.
//
// All runtime settings live in one explicit structure constructed once at
// startup and passed by reference to components; nothing reads the
// environment at call sites. Paths are expanded and normalized during Load
// so the rest of the codebase only ever sees absolute paths.
package config
