package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables bound to configuration keys.
const EnvPrefix = "ZINE"

// Config encapsulates build-time options.
type Config struct {
	Source            string        `mapstructure:"source"`
	Dest              string        `mapstructure:"dest"`
	Templates         string        `mapstructure:"templates"`
	Develop           bool          `mapstructure:"develop"`
	Minify            bool          `mapstructure:"minify"`
	FetchPreviews     bool          `mapstructure:"fetchPreviews"`
	PreviewTimeoutSec int           `mapstructure:"previewTimeoutSec"`
	Listen            string        `mapstructure:"listen"`
	LogLevel          string        `mapstructure:"logLevel"`
	PreviewTimeout    time.Duration `mapstructure:"-"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source", ".")
	v.SetDefault("dest", "build")
	v.SetDefault("templates", filepath.Join("templates", "*.html"))
	v.SetDefault("develop", false)
	v.SetDefault("minify", false)
	v.SetDefault("fetchPreviews", true)
	v.SetDefault("previewTimeoutSec", 10)
	v.SetDefault("listen", "127.0.0.1:3000")
	v.SetDefault("logLevel", "info")
}

// New returns a viper instance with defaults and ZINE_* environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges an optional configuration file into v.
func ReadFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	v.SetConfigFile(filepath.Clean(path))
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and applies defaults and validation.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Source = strings.TrimSpace(c.Source)
	if c.Source == "" {
		c.Source = "."
	}
	c.Dest = strings.TrimSpace(c.Dest)
	if c.Dest == "" {
		c.Dest = "build"
	}
	c.Templates = strings.TrimSpace(c.Templates)
	if c.Templates == "" {
		c.Templates = filepath.Join("templates", "*.html")
	}
	if !filepath.IsAbs(c.Templates) {
		c.Templates = filepath.Join(c.Source, c.Templates)
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:3000"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PreviewTimeoutSec == 0 {
		c.PreviewTimeoutSec = 10
	}
	c.PreviewTimeout = time.Duration(c.PreviewTimeoutSec) * time.Second
}

func (c *Config) validate() error {
	if c.PreviewTimeoutSec < 0 {
		return fmt.Errorf("negative preview timeout")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if _, err := filepath.Match(filepath.Base(c.Templates), ""); err != nil {
		return fmt.Errorf("invalid template pattern %q: %w", c.Templates, err)
	}
	src, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	dst, err := filepath.Abs(c.Dest)
	if err != nil {
		return fmt.Errorf("resolve dest: %w", err)
	}
	if src == dst {
		return errors.New("destination must differ from source")
	}
	return nil
}

// IsWithinDest reports whether path lies inside the destination directory.
func (c *Config) IsWithinDest(path string) bool {
	base, err := filepath.Abs(c.Dest)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, "../"))
}
