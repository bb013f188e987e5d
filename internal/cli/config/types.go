// Package config provides configuration management for the pqview CLI.
package config

import (
	"time"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/session"
)

// Default configuration values.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultDecoder     = decode.DuckDBName
	DefaultLocale      = "en"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort        = 8787
	DefaultMaxUploadMB = 512
)

// Output formats accepted by the terminal commands.
const (
	OutputAuto     = "auto"
	OutputText     = "text"
	OutputMarkdown = "markdown"
	OutputCSV      = "csv"
	OutputHTML     = "html"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
)

// OutputFormats lists every valid value of the output key.
var OutputFormats = []string{OutputAuto, OutputText, OutputMarkdown, OutputCSV, OutputHTML, OutputJSON, OutputYAML}

// LogConfig controls the slog handler built by the root command.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// UIConfig holds configuration for the viewer server.
type UIConfig struct {
	Port          int           `koanf:"port"`
	AutoOpen      bool          `koanf:"auto_open"`
	PageSize      int           `koanf:"page_size"`
	MaxUploadMB   int           `koanf:"max_upload_mb"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	SessionSecret string        `koanf:"session_secret"`
}

// MaxUploadBytes converts the upload limit to bytes.
func (u UIConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

// Config holds all CLI configuration options.
type Config struct {
	Log     LogConfig `koanf:"log"`
	Decoder string    `koanf:"decoder"`
	Locale  string    `koanf:"locale"`
	Output  string    `koanf:"output"`
	UI      UIConfig  `koanf:"ui"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Decoder: DefaultDecoder,
		Locale:  DefaultLocale,
		Output:  DefaultOutput,
		UI: UIConfig{
			Port:        DefaultPort,
			AutoOpen:    true,
			PageSize:    session.DefaultPageSize,
			MaxUploadMB: DefaultMaxUploadMB,
			SessionTTL:  session.DefaultTTL,
		},
	}
}

// LocaleTag parses the locale key. An unparsable locale falls back to English;
// Validate reports it before any command runs.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
