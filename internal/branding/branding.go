// Package branding provides compile-time identity values for the CLI.
//
// Values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only needs to edit the yaml.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	DefaultEndpoint string `yaml:"default_endpoint"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:         "updatewatch",
			DisplayName:     "UpdateWatch",
			Description:     "Deployed-build update checker",
			HomeDir:         ".updatewatch",
			EnvPrefix:       "UPDATEWATCH",
			GoModule:        "github.com/ylingtech/updatewatch",
			DefaultEndpoint: "http://localhost:5173/version.json",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "updatewatch").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".updatewatch").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "UPDATEWATCH").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// DefaultEndpoint returns the version descriptor URL used when none is configured.
func DefaultEndpoint() string { load(); return defaults.DefaultEndpoint }

// UserAgent returns the User-Agent header sent with descriptor requests.
func UserAgent() string { load(); return defaults.CLIName + "-checker" }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "UPDATEWATCH_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
