// Package config provides configuration structures and utilities for
// StreamHunter. It defines the main configuration options for subnet
// scanning, probe tuning, result persistence, and report generation.
package config
