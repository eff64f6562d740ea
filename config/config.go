// Package config loads the process-wide configuration that governs
// conformance strictness, identifier logging, and transfer behavior
// across every association an AE makes or accepts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator checks one attribute value against its VR's constraints,
// returning a non-nil error to reject it.
type Validator func(value string) error

// Config is the process-wide configuration. Its zero value has every
// flag off, EnforceUIDConformance included; Default turns
// EnforceUIDConformance on. This package loads a Config and runs its
// Validators, but no other package in this module reads one: association,
// dulsm and pdu behave the same whatever its fields hold.
type Config struct {
	// EnforceUIDConformance is the flag for rejecting malformed UIDs
	// (P3.5 9.1) instead of passing them through.
	EnforceUIDConformance bool `yaml:"enforce_uid_conformance"`
	// LogRequestIdentifiers/LogResponseIdentifiers are the flags for
	// logging the decoded C-FIND/C-GET/C-MOVE identifier at debug level;
	// off by default since identifiers carry patient-identifying data.
	LogRequestIdentifiers  bool `yaml:"log_request_identifiers"`
	LogResponseIdentifiers bool `yaml:"log_response_identifiers"`
	// UseShortDIMSEAET is the flag for truncating outgoing AE titles to
	// 16 bytes rather than rejecting ones that exceed it. The pdu
	// encoder truncates over-long titles to 16 bytes whatever it holds.
	UseShortDIMSEAET bool `yaml:"use_short_dimse_aet"`
	// UnrestrictedStorageService is the flag for accepting C-STORE for
	// any SOP class rather than only abstract syntaxes negotiated at
	// association time (the Storage SCP "unrestricted" option).
	UnrestrictedStorageService bool `yaml:"unrestricted_storage_service"`
	// ChunkedSendReceive is the flag for streaming P-DATA-TF fragments
	// directly to/from the wire instead of reassembling a full
	// command+data set in memory first; association and dulsm always
	// reassemble in memory.
	ChunkedSendReceive bool `yaml:"chunked_send_receive"`
	// WindowsTimerResolution is the flag for requesting a finer OS timer
	// tick for ARTIM and DIMSE timeouts; the timers in dulsm and
	// association use Go's own timer resolution.
	WindowsTimerResolution bool `yaml:"windows_timer_resolution"`

	// Validators maps a VR name ("UI", "AE", "DA", ...) to an
	// additional check that Validate runs for that VR, whatever
	// EnforceUIDConformance holds. Not serializable; set programmatically.
	Validators map[string]Validator `yaml:"-"`
}

// Default returns the conservative configuration spelled out
// explicitly (EnforceUIDConformance on, every other flag off, an empty
// Validators map), for callers who want a concrete starting point to
// customize rather than a bare literal.
func Default() Config {
	return Config{
		EnforceUIDConformance: true,
		Validators:            map[string]Validator{},
	}
}

// Load reads and parses a YAML configuration file, applying Default's
// values for anything the file leaves unset.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Validators == nil {
		cfg.Validators = map[string]Validator{}
	}
	return cfg, nil
}

// Validate runs the configured validator for vr, if any, against value.
func (c Config) Validate(vr, value string) error {
	v, ok := c.Validators[vr]
	if !ok {
		return nil
	}
	return v(value)
}
