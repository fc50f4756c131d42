package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeLocal = "local"
	ModeTool  = "tool"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type DialogueConfig struct {
	// Mode "local" runs the heuristics only; "tool" backs them with the model.
	Mode       string        `yaml:"mode"`
	ThinkDelay time.Duration `yaml:"think_delay"`
	// Language of model-worded questions in tool mode.
	Language     string `yaml:"language"`
	CatalogPath  string `yaml:"catalog"`
	HistoryLimit int    `yaml:"history_limit"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Model: "gpt-4o-mini",
		},
		Dialogue: DialogueConfig{
			Mode:         ModeLocal,
			ThinkDelay:   600 * time.Millisecond,
			Language:     "English",
			HistoryLimit: 50,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   "data/homi.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	conf.ApplyEnv(os.Getenv)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ApplyEnv overrides model settings from HOMI_API_KEY (or OPENAI_API_KEY),
// HOMI_BASE_URL and HOMI_MODEL.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("HOMI_API_KEY"); v != "" {
		c.Model.APIKey = v
	} else if v := getenv("OPENAI_API_KEY"); v != "" && c.Model.APIKey == "" {
		c.Model.APIKey = v
	}
	if v := getenv("HOMI_BASE_URL"); v != "" {
		c.Model.BaseURL = v
	}
	if v := getenv("HOMI_MODEL"); v != "" {
		c.Model.Model = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Dialogue.Mode {
	case ModeLocal, ModeTool:
	default:
		errs = append(errs, fmt.Errorf("dialogue.mode must be %q or %q, got %q", ModeLocal, ModeTool, c.Dialogue.Mode))
	}
	if c.Dialogue.ThinkDelay < 0 {
		errs = append(errs, errors.New("dialogue.think_delay must not be negative"))
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", StorageMemory, StorageSQLite, c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// RequireModel reports a missing model configuration. Finalization always
// needs the model.
func (c *Config) RequireModel() error {
	if c.Model.APIKey == "" {
		return errors.New("model api key is not set: use model.api_key, HOMI_API_KEY or OPENAI_API_KEY")
	}
	if c.Model.Model == "" {
		return errors.New("model name is not set")
	}
	return nil
}
