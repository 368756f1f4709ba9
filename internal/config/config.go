// Package config loads accesspdf's configuration: built-in defaults,
// overlaid by an optional YAML config file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v3"
)

// Config holds accesspdf's storage, model, limit, rate-limit and auth settings.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Storage struct {
		UploadsRoot string `yaml:"uploads_root"`
		ResultsRoot string `yaml:"results_root"`
		MaxUploadMB int     `yaml:"max_upload_mb"`
	} `yaml:"storage"`

	Model struct {
		BaseURL string `yaml:"base_url"`
		Name    string `yaml:"name"`
	} `yaml:"model"`

	Limits struct {
		MaxImageDim   int `yaml:"max_image_dim"`
		MaxImageBytes int `yaml:"max_image_bytes"`
		MaxAltTextLen int `yaml:"max_alt_text_len"`
	} `yaml:"limits"`

	RateLimit struct {
		WindowSeconds int `yaml:"window_seconds"`
		MaxAttempts   int `yaml:"max_attempts"`
	} `yaml:"rate_limit"`

	Auth struct {
		TokenTTL       time.Duration `yaml:"token_ttl"`
		CookieSecure   bool          `yaml:"cookie_secure"`
		CookieSameSite string        `yaml:"cookie_same_site"`
	} `yaml:"auth"`
}

// Defaults returns the built-in constants (max image dimension 1024, max
// image size 4MiB, max alt-text length 400, a 300s/5-attempt rate-limit
// window) so a deployment with no config file at all still behaves sensibly.
func Defaults() *Config {
	var c Config
	c.Database.Path = "accesspdf.db"
	c.Storage.UploadsRoot = "uploads"
	c.Storage.ResultsRoot = "results"
	c.Storage.MaxUploadMB = 50
	c.Model.BaseURL = "http://localhost:11434"
	c.Model.Name = "llava"
	c.Limits.MaxImageDim = 1024
	c.Limits.MaxImageBytes = 4 * 1024 * 1024
	c.Limits.MaxAltTextLen = 400
	c.RateLimit.WindowSeconds = 300
	c.RateLimit.MaxAttempts = 5
	c.Auth.TokenTTL = 24 * time.Hour
	c.Auth.CookieSameSite = "Lax"
	return &c
}

// Load loads envFile into the process environment (a named file that is
// missing is an error; with an empty name a .env in the working directory is
// tried and its absence ignored), then overlays configFile on Defaults
// (defaults alone are returned when configFile is empty). Environment
// variables reach the result only through viper.AutomaticEnv for keys the
// config file itself sets, under their upper-cased dotted names (e.g.
// MODEL.BASE_URL); without a config file the environment is not consulted.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	cfg := Defaults()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}

		var raw map[string]any
		if err := v.Unmarshal(&raw); err != nil {
			return nil, fmt.Errorf("config: unmarshal raw: %w", err)
		}
		yamlData, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("config: re-marshal to yaml: %w", err)
		}
		if err := yaml.Unmarshal(yamlData, cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal into struct: %w", err)
		}
	}

	return cfg, nil
}
