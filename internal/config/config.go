package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	// Backend selection: "auto", "deepseek", or "qwen"
	Mode string `json:"mode"`

	// Backend settings
	Backends BackendsConfig `json:"backends"`

	// Retry budget for a single backend call
	MaxRetries int `json:"max_retries"`

	// Weather tool settings
	Weather WeatherConfig `json:"weather"`

	// Local data directory (report cache); empty means ~/.parasol
	DataDir string `json:"data_dir,omitempty"`
}

type BackendsConfig struct {
	Primary   BackendConfig `json:"primary"`
	Secondary BackendConfig `json:"secondary"`
}

type BackendConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

type WeatherConfig struct {
	// Source of weather data: "static" (built-in fixtures) or "wttr"
	Source   string        `json:"source"`
	BaseURL  string        `json:"base_url,omitempty"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode: "auto",
		Backends: BackendsConfig{
			Primary: BackendConfig{
				Provider: "deepseek",
				Model:    "deepseek-chat",
				BaseURL:  "https://api.deepseek.com",
			},
			Secondary: BackendConfig{
				Provider: "qwen",
				Model:    "qwen-plus",
				BaseURL:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
			},
		},
		MaxRetries: 2,
		Weather: WeatherConfig{
			Source:   "static",
			CacheTTL: 30 * time.Minute,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataPath returns the directory holding parasol's local data.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parasol"
	}
	return filepath.Join(home, ".parasol")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parasol.json"
	}
	return filepath.Join(home, ".parasol", "config.json")
}
