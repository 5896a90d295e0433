package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DapperHoldings/streamhunter/internal/model"
	"github.com/DapperHoldings/streamhunter/internal/probe"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".streamhunter"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Paths holds per-protocol manifest path overrides for the HTTP probes.
type Paths struct {
	// HLS replaces the built-in HLS playlist candidate paths.
	HLS []string `yaml:"hls,omitempty"`

	// DASH replaces the built-in DASH manifest candidate paths.
	DASH []string `yaml:"dash,omitempty"`
}

// File represents the structure of the .streamhunter configuration file.
// Every field is optional; absent fields fall back to the built-in defaults,
// so a config file only needs to name what it wants to change.
type File struct {
	// Ports maps protocol names (rtsp, hls, dash, rtmp) to the TCP ports
	// probed for that protocol. Listing a protocol replaces its default
	// port set entirely; omitting it keeps the defaults.
	Ports map[string][]uint16 `yaml:"ports,omitempty"`

	// Paths overrides the manifest paths tried by the HTTP-based probes.
	Paths Paths `yaml:"paths,omitempty"`

	// RTSPPath overrides the presentation path in RTSP OPTIONS requests
	// and in reported RTSP URLs. Defaults to "stream".
	RTSPPath string `yaml:"rtspPath,omitempty"`

	// RTMPApp overrides the application name in reported RTMP URLs.
	// Defaults to "live".
	RTMPApp string `yaml:"rtmpApp,omitempty"`
}

// Matrix builds the protocol/port matrix from the file's overrides.
// Protocols not mentioned in Ports keep their default port sets, so a
// partial override never silently drops a protocol from the scan.
// A nil receiver yields the default matrix unchanged.
func (cf *File) Matrix() (*probe.Matrix, error) {
	ports := make(map[model.Protocol][]uint16)
	for _, protocol := range model.Protocols() {
		ports[protocol] = probe.DefaultMatrix().Ports(protocol)
	}

	if cf != nil {
		for name, override := range cf.Ports {
			protocol, err := model.ParseProtocol(name)
			if err != nil {
				return nil, fmt.Errorf("config ports: %w", err)
			}
			ports[protocol] = override
		}
	}

	return probe.NewMatrix(ports)
}

// LoadConfigFile loads probe overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .streamhunter in the current directory
// 3. Look for .streamhunter in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
