package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RECONBOT_LOG_LEVEL.
const EnvPrefix = "RECONBOT"

// Config holds runtime settings for the CLI and the HTTP server.
type Config struct {
	IncludeUncategorized bool         `mapstructure:"include_uncategorized"`
	Debug                bool         `mapstructure:"debug"`
	Log                  LogConfig    `mapstructure:"log"`
	Output               OutputConfig `mapstructure:"output"`
	Server               ServerConfig `mapstructure:"server"`
	OCR                  OCRConfig    `mapstructure:"ocr"`
	PDF                  PDFConfig    `mapstructure:"pdf"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OutputConfig selects the ledger sink.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "xlsx" or "csv"
}

// ServerConfig configures the fiber app.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

// OCRConfig configures the tesseract invocation.
type OCRConfig struct {
	Binary string `mapstructure:"binary"`
	Lang   string `mapstructure:"lang"`
	PSM    int    `mapstructure:"psm"`
}

// PDFConfig toggles the external pdftotext fallback.
type PDFConfig struct {
	Pdftotext bool `mapstructure:"pdftotext"`
}

var defaults = map[string]interface{}{
	"include_uncategorized": true,
	"debug":                 false,
	"log.level":             "info",
	"log.json":              false,
	"output.format":         "xlsx",
	"server.addr":           ":8080",
	"server.body_limit_mb":  32,
	"ocr.binary":            "tesseract",
	"ocr.lang":              "eng",
	"ocr.psm":               4,
	"pdf.pdftotext":         true,
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in settings.
func Default() *Config {
	cfg, err := Decode(New())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return cfg
}

// Load reads path (when non-empty) into v and decodes the result. A missing
// file at an explicit path is an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case "xlsx", "csv":
	default:
		errs = append(errs, fmt.Errorf("output.format must be xlsx or csv, got %q", c.Output.Format))
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB))
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		errs = append(errs, fmt.Errorf("ocr.psm must be between 0 and 13, got %d", c.OCR.PSM))
	}
	return errors.Join(errs...)
}

// BindFlags maps config keys to cobra/pflag flags. Flags only override the
// config when set on the command line.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", flag, err)
		}
	}
	return nil
}
