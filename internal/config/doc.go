// Package config holds the settings of a sitemaps run, their defaults and
// validation, the optional YAML file with per-host overrides, and the XDG
// directories used for configuration and history data.
package config
