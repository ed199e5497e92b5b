// Package config loads the YAML settings file enumerating printers,
// scanners, and the service's external collaborators.
//
// The shape mirrors original_source/src/config_schema.py field for field
// (environment, database uri, CUPS/identity-provider/converter endpoints,
// bot token, temp dir, CORS regex), translated into a Go struct with yaml
// tags instead of pydantic-settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment flag.
type Environment string

// Known environments.
const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Printer is one entry of the printer catalog.
type Printer struct {
	DisplayName string `yaml:"display_name"`
	CupsName    string `yaml:"cups_name"`
	IPPEndpoint string `yaml:"ipp_endpoint"`
}

// Scanner is one entry of the scanner catalog.
type Scanner struct {
	DisplayName string `yaml:"display_name"`
	Name        string `yaml:"name"`
	ESCLBaseURL string `yaml:"escl_base_url"`
}

// Settings is the root of the YAML settings file.
type Settings struct {
	Environment Environment `yaml:"environment"`
	AppRootPath string      `yaml:"app_root_path"`

	Printers []Printer `yaml:"printers"`
	Scanners []Scanner `yaml:"scanners"`

	DatabaseURI string `yaml:"database_uri"`

	CORSAllowOriginRegex string `yaml:"cors_allow_origin_regex"`

	IdentityProviderURL   string `yaml:"identity_provider_url"`
	IdentityProviderToken string `yaml:"identity_provider_jwt_token"`

	ConverterEndpoint string `yaml:"converter_endpoint"`

	BotToken string `yaml:"bot_token"`

	TempDir string `yaml:"temp_dir"`
}

// Load reads and validates settings from a YAML file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if s.Environment == "" {
		s.Environment = Development
	}
	if s.CORSAllowOriginRegex == "" {
		s.CORSAllowOriginRegex = ".*"
	}
	if s.TempDir == "" {
		s.TempDir = os.TempDir()
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Settings) validate() error {
	if s.DatabaseURI == "" {
		return fmt.Errorf("config: database_uri is required")
	}
	if s.BotToken == "" {
		return fmt.Errorf("config: bot_token is required")
	}

	seen := make(map[string]struct{}, len(s.Printers))
	for _, p := range s.Printers {
		if p.CupsName == "" {
			return fmt.Errorf("config: printer %q: cups_name is required", p.DisplayName)
		}
		if _, dup := seen[p.CupsName]; dup {
			return fmt.Errorf("config: duplicate printer cups_name %q", p.CupsName)
		}
		seen[p.CupsName] = struct{}{}
	}

	seenScanners := make(map[string]struct{}, len(s.Scanners))
	for _, sc := range s.Scanners {
		if sc.Name == "" {
			return fmt.Errorf("config: scanner %q: name is required", sc.DisplayName)
		}
		if _, dup := seenScanners[sc.Name]; dup {
			return fmt.Errorf("config: duplicate scanner name %q", sc.Name)
		}
		seenScanners[sc.Name] = struct{}{}
	}

	return nil
}
