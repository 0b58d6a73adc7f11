// Package config defines the settings shared by the recall binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Secrets (model API key, registry token) are read from the environment on
// Load and are never written back by Save.
package config
