package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Engine names accepted by the engine field.
const (
	EngineLlama     = "llama"
	EngineSimulated = "simulated"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Defaults in WithDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Directory holding bundled weights copied into ModelsDir on first use.
	AssetsDir string `json:"assets_dir" yaml:"assets_dir" toml:"assets_dir"`
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name"`
	// Nil means unspecified; the default is to auto-load.
	AutoLoad  *bool  `json:"auto_load" yaml:"auto_load" toml:"auto_load"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	CtxSize   int    `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads   int    `json:"threads" yaml:"threads" toml:"threads"`
	Engine    string `json:"engine" yaml:"engine" toml:"engine"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	autoLoad := true
	return Config{
		Addr:         ":8080",
		ModelsDir:    "~/.local/share/llamachat/models",
		ModelName:    "llama-2-7b-chat.Q5_K_M.gguf",
		AutoLoad:     &autoLoad,
		MaxTokens:    512,
		CtxSize:      2048,
		Threads:      4,
		Engine:       EngineLlama,
		LogLevel:     "info",
		MaxBodyBytes: 1 << 20,
	}
}

// WithDefaults fills every unspecified field of c from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = d.ModelsDir
	}
	if c.ModelName == "" {
		c.ModelName = d.ModelName
	}
	if c.AutoLoad == nil {
		c.AutoLoad = d.AutoLoad
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.CtxSize <= 0 {
		c.CtxSize = d.CtxSize
	}
	if c.Threads <= 0 {
		c.Threads = d.Threads
	}
	if c.Engine == "" {
		c.Engine = d.Engine
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	return c
}

// ShouldAutoLoad reports the effective auto_load value.
func (c Config) ShouldAutoLoad() bool { return c.AutoLoad == nil || *c.AutoLoad }

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case "", EngineLlama, EngineSimulated:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineLlama, EngineSimulated)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative: %d", c.MaxTokens)
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}
