// Package config loads dashboard live-channel configuration.
//
// Config files are YAML with ${VAR} environment substitution, layered
// as Load → LoadWithDefaults → LoadAndValidate.
package config
