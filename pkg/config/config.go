package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	// APIKeyEnv overrides flickr.api_key when set.
	APIKeyEnv = "FLICKR_API_KEY"

	DefaultBaseURL         = "https://api.flickr.com/services/rest/"
	DefaultPreferredUserID = "12403504@N02"
	DefaultPreferredLabel  = "British Library"
	DefaultGlobalLabel     = "all Flickr"
)

type Config struct {
	Flickr      FlickrConfig      `toml:"flickr"`
	Search      SearchConfig      `toml:"search"`
	Inspiration InspirationConfig `toml:"inspiration"`
}

type FlickrConfig struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	PreferredUserID   string   `toml:"preferred_user_id"`
	PreferredUsername string   `toml:"preferred_username"`
	PreferredLabel    string   `toml:"preferred_label"`
	GlobalLabel       string   `toml:"global_label"`
}

type SearchConfig struct {
	DefaultCount int `toml:"default_count"`
	MinCount     int `toml:"min_count"`
	MaxCount     int `toml:"max_count"`
}

type InspirationConfig struct {
	// Vocabulary is a file path or http(s) URL. Empty selects the built-in list.
	Vocabulary string `toml:"vocabulary"`
	Words      int    `toml:"words"`
	PerWord    int    `toml:"per_word"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads configPath. A missing file yields the defaults. The API key
// environment variable is applied last.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	cfg.applyDefaults()
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.Flickr.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Flickr.APIKey = strings.TrimSpace(c.Flickr.APIKey)
	if c.Flickr.BaseURL == "" {
		c.Flickr.BaseURL = DefaultBaseURL
	}
	if c.Flickr.Timeout.Duration == 0 {
		c.Flickr.Timeout = Duration{30 * time.Second}
	}
	if c.Flickr.PreferredUserID == "" && c.Flickr.PreferredUsername == "" {
		c.Flickr.PreferredUserID = DefaultPreferredUserID
	}
	if c.Flickr.PreferredLabel == "" {
		c.Flickr.PreferredLabel = DefaultPreferredLabel
	}
	if c.Flickr.GlobalLabel == "" {
		c.Flickr.GlobalLabel = DefaultGlobalLabel
	}

	if c.Search.MinCount <= 0 {
		c.Search.MinCount = 3
	}
	if c.Search.MaxCount <= 0 {
		c.Search.MaxCount = 10
	}
	if c.Search.DefaultCount <= 0 {
		c.Search.DefaultCount = c.Search.MaxCount
	}

	if c.Inspiration.Words <= 0 {
		c.Inspiration.Words = 3
	}
	if c.Inspiration.PerWord <= 0 {
		c.Inspiration.PerWord = 50
	}
}

// Validate checks the ranges that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Search.MinCount > c.Search.MaxCount {
		return fmt.Errorf("search.min_count (%d) is greater than search.max_count (%d)", c.Search.MinCount, c.Search.MaxCount)
	}
	if c.Search.DefaultCount < c.Search.MinCount || c.Search.DefaultCount > c.Search.MaxCount {
		return fmt.Errorf("search.default_count (%d) must be between %d and %d", c.Search.DefaultCount, c.Search.MinCount, c.Search.MaxCount)
	}
	return nil
}

// IsConfigured reports whether the API credential is present.
func (c *Config) IsConfigured() bool {
	return c.Flickr.APIKey != ""
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0600)
}

// SaveTemplateConfig writes the commented sample configuration.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0600)
}

// GetConfigDir returns the configuration directory for sparks
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "sparks"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
