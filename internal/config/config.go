package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Database Database `yaml:"database"`
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Storage struct {
	DataDir        string `yaml:"data_dir"`
	RecordsDir     string `yaml:"records_dir"`
	TemplatesDir   string `yaml:"templates_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for memoria.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "memoria")
}

// DataDir returns the XDG data directory for memoria.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "memoria")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/memoria/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'memoria init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Storage: Storage{
			MaxUploadBytes: 16 << 20,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// GetDatabasePath returns the configured database path or the default
// inside the data directory.
func (c *Config) GetDatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.GetDataDir(), "memoria.db")
}

// GetRecordsDir returns where per-record export files are written.
func (c *Config) GetRecordsDir() string {
	if c.Storage.RecordsDir != "" {
		return c.Storage.RecordsDir
	}
	return filepath.Join(c.GetDataDir(), "records")
}

// GetTemplatesDir returns where uploaded template files are kept.
func (c *Config) GetTemplatesDir() string {
	if c.Storage.TemplatesDir != "" {
		return c.Storage.TemplatesDir
	}
	return filepath.Join(c.GetDataDir(), "templates")
}

// GetIndexPath returns where the generated index page lives.
func (c *Config) GetIndexPath() string {
	return filepath.Join(c.GetDataDir(), "index.html")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
