package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_BackendDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "auto" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "auto")
	}
	if cfg.Backends.Primary.Provider != "deepseek" {
		t.Errorf("Primary.Provider = %q, want %q", cfg.Backends.Primary.Provider, "deepseek")
	}
	if cfg.Backends.Primary.Model != "deepseek-chat" {
		t.Errorf("Primary.Model = %q, want %q", cfg.Backends.Primary.Model, "deepseek-chat")
	}
	if cfg.Backends.Primary.BaseURL != "https://api.deepseek.com" {
		t.Errorf("Primary.BaseURL = %q, want %q", cfg.Backends.Primary.BaseURL, "https://api.deepseek.com")
	}
	if cfg.Backends.Secondary.Provider != "qwen" {
		t.Errorf("Secondary.Provider = %q, want %q", cfg.Backends.Secondary.Provider, "qwen")
	}
	if cfg.Backends.Secondary.Model != "qwen-plus" {
		t.Errorf("Secondary.Model = %q, want %q", cfg.Backends.Secondary.Model, "qwen-plus")
	}
	if cfg.Backends.Secondary.BaseURL != "https://dashscope.aliyuncs.com/compatible-mode/v1" {
		t.Errorf("Secondary.BaseURL = %q, want dashscope compatible-mode URL", cfg.Backends.Secondary.BaseURL)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, 2)
	}
}

func TestDefaultConfig_WeatherDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Weather.Source != "static" {
		t.Errorf("Weather.Source = %q, want %q", cfg.Weather.Source, "static")
	}
	if cfg.Weather.CacheTTL != 30*time.Minute {
		t.Errorf("Weather.CacheTTL = %v, want %v", cfg.Weather.CacheTTL, 30*time.Minute)
	}
	if cfg.Weather.BaseURL != "" {
		t.Errorf("Weather.BaseURL = %q, want empty", cfg.Weather.BaseURL)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != "auto" || cfg.Backends.Primary.Provider != "deepseek" {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"mode": "qwen", "backends": {"primary": {"provider": "deepseek", "model": "deepseek-reasoner"}}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != "qwen" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "qwen")
	}
	if cfg.Backends.Primary.Model != "deepseek-reasoner" {
		t.Errorf("Primary.Model = %q, want %q", cfg.Backends.Primary.Model, "deepseek-reasoner")
	}
	// Fields absent from the file keep their defaults.
	if cfg.Backends.Secondary.Provider != "qwen" {
		t.Errorf("Secondary.Provider = %q, want default qwen", cfg.Backends.Secondary.Provider)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want default 2", cfg.MaxRetries)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Mode = "deepseek"
	cfg.Weather.Source = "wttr"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Mode != "deepseek" {
		t.Errorf("Mode = %q, want %q", loaded.Mode, "deepseek")
	}
	if loaded.Weather.Source != "wttr" {
		t.Errorf("Weather.Source = %q, want %q", loaded.Weather.Source, "wttr")
	}
}

func TestDataPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/parasol-test"
	if got := cfg.DataPath(); got != "/tmp/parasol-test" {
		t.Errorf("DataPath = %q, want configured dir", got)
	}

	cfg.DataDir = ""
	if got := cfg.DataPath(); got == "" {
		t.Error("DataPath should never be empty")
	}
}
