// Package config provides configuration structures and utilities for npocrawl.
// It defines the crawl options set by CLI flags, the optional YAML
// configuration file that overrides the directory layout, selectors and
// request settings, and country name normalization.
package config
