// Package config loads and validates juiceplant run configuration.
//
// Values are layered: built-in defaults, then an optional TOML file (decoded
// strictly, unknown keys are an error), then JUICE_* environment variables.
// LoadDotEnv can seed the environment from a .env file first. Command line
// flags are applied on top by the caller.
//
// Stage durations are keyed by stage name in milliseconds and turned into an
// item.StageTable through StageTable.
package config
