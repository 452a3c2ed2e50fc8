// Package config loads and merges code-reviewer configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CODE_REVIEWER_MODEL, CODE_REVIEWER_STRICTNESS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/code-reviewer/config.json)
//  4. Built-in defaults
//
// Merging is done with viper. Use [Load] to obtain a merged [Config],
// [Save] to persist one, and [SetField] to update a single key.
package config
