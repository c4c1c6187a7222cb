package config

import (
	"maps"
	"net"
	"strings"
)

// SiteConfig holds the settings for one host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header ("name=value; other=value").
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxEntries overrides the entry budget. Zero keeps the global value.
	MaxEntries int `yaml:"maxEntries,omitempty"`

	// Include and Exclude are glob patterns on entry URL paths.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// File is the layout of the YAML configuration file.
type File struct {
	// Defaults apply to every host.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host name ("example.com", "shop.example.com:8080") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the settings for host: the matching Sites entry
// merged over Defaults. Hosts are compared case-insensitively, and a host with
// a port falls back to the entry without it.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.MaxEntries != 0 {
		result.MaxEntries = site.MaxEntries
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.Include) > 0 {
		result.Include = site.Include
	}
	if len(site.Exclude) > 0 {
		result.Exclude = site.Exclude
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	for name, site := range cf.Sites {
		if strings.ToLower(name) == host {
			return site, true
		}
	}
	if bare, _, err := net.SplitHostPort(host); err == nil {
		return cf.lookup(bare)
	}
	return SiteConfig{}, false
}
