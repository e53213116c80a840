package airkiss

/*------------------------------------------------------------------
 *
 * Purpose:	Optional YAML configuration for the registry and
 *		acknowledgement layers (spec §6 EXPANSION).
 *
 * Description:	Mirrors the teacher's tocalls.yaml loading pattern in
 *		deviceid.go: search a short list of candidate paths,
 *		decode the first one found, and fall back to sensible
 *		defaults if none exists. A missing config file is not an
 *		error; a file that cannot be read or parsed is.
 *
 *------------------------------------------------------------------*/

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the decoder's full set of tunables (spec §6 EXPANSION).
type Config struct {
	Registry  RegistryConfig  `yaml:"registry"`
	Ack       AckConfig       `yaml:"ack"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Advertise AdvertiseConfig `yaml:"advertise"`
	Log       LogConfig       `yaml:"log"`
}

// RegistryConfig configures the session registry.
type RegistryConfig struct {
	MaxSessions int `yaml:"max_sessions"`
}

// AckConfig configures the acknowledgement broadcaster.
type AckConfig struct {
	Port          int    `yaml:"port"`
	BurstCount    int    `yaml:"burst_count"`
	IntervalMs    int    `yaml:"interval_ms"`
	BindInterface string `yaml:"bind_interface"`
}

// IndicatorConfig configures the optional GPIO completion indicator.
type IndicatorConfig struct {
	Chip string `yaml:"chip"`
	Line int    `yaml:"line"`
}

// AdvertiseConfig configures the optional post-join mDNS advertisement.
type AdvertiseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceType string `yaml:"service_type"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is found,
// matching the "interoperable" defaults named in spec §6 EXPANSION.
func DefaultConfig() Config {
	return Config{
		Ack: AckConfig{
			Port:       10000,
			BurstCount: 50,
			IntervalMs: 200,
		},
		Advertise: AdvertiseConfig{
			ServiceType: "_airkiss._tcp",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultSearchPaths lists the candidate config file locations, checked
// in order, in the manner of deviceid.go's tocalls.yaml search list.
var defaultSearchPaths = []string{
	"airkiss.yaml",
	"config/airkiss.yaml",
	"/etc/airkiss/airkiss.yaml",
}

// LoadConfig reads the first config file found among the given paths (or
// defaultSearchPaths if none are given), decodes it over DefaultConfig,
// and returns the result. A missing file at every path is not an error:
// LoadConfig simply returns the defaults.
func LoadConfig(paths ...string) (Config, error) {
	cfg := DefaultConfig()

	if len(paths) == 0 {
		paths = defaultSearchPaths
	}

	var fp *os.File
	for _, path := range paths {
		f, err := os.Open(path)
		if err == nil {
			fp = f
			break
		}
	}
	if fp == nil {
		return cfg, nil
	}
	defer fp.Close()

	data, err := io.ReadAll(fp)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
