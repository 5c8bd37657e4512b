package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CLIConfig is the studyctl configuration file.
type CLIConfig struct {
	APIURL         string `yaml:"api_url"`
	DBPath         string `yaml:"db_path"`
	LabelMaxLength int    `yaml:"label_max_length"`
	WeekStartsOn   int    `yaml:"week_starts_on"`
	Timezone       string `yaml:"timezone"`
	Notify         bool   `yaml:"notify"`
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		APIURL:         "http://localhost:8080",
		DBPath:         filepath.Join(configHome(), "studyctl", "studyctl.db"),
		LabelMaxLength: 18,
		WeekStartsOn:   0,
		Timezone:       "Local",
		Notify:         true,
	}
}

// DefaultCLIConfigPath is ~/.config/studyctl/config.yaml (or $XDG_CONFIG_HOME).
func DefaultCLIConfigPath() string {
	return filepath.Join(configHome(), "studyctl", "config.yaml")
}

// LoadCLI reads path on top of the defaults. A missing file is not an error.
// STUDYCTL_API_URL, from the environment or a .env file, overrides api_url.
func LoadCLI(path string) (CLIConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultCLIConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("STUDYCTL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if cfg.LabelMaxLength < 1 {
		cfg.LabelMaxLength = 18
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func (c CLIConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (c CLIConfig) WeekStart() time.Weekday {
	return weekdayOrDefault(c.WeekStartsOn)
}

func (c CLIConfig) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	return locationOrUTC(c.Timezone)
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}
