package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("log-level", "", "log level")
	flags.String("decoder", "", "decoder")
	flags.StringP("output", "o", "", "output format")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, 30*time.Minute, cfg.UI.SessionTTL)
	assert.Equal(t, int64(512<<20), cfg.UI.MaxUploadBytes())
}

func TestLoadConfig_DiscoversFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "pqview.yml", `
decoder: arrow
locale: de-DE
ui:
  port: 9000
  auto_open: false
  session_ttl: 5m
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "pqview.yml", GetConfigFileUsed())
	assert.Equal(t, "arrow", cfg.Decoder)
	assert.Equal(t, language.MustParse("de-DE"), cfg.LocaleTag())
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.False(t, cfg.UI.AutoOpen)
	assert.Equal(t, 5*time.Minute, cfg.UI.SessionTTL)
	assert.Equal(t, DefaultMaxUploadMB, cfg.UI.MaxUploadMB, "unset keys keep defaults")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "custom.yaml", `
log:
  level: warn
ui:
  page_size: 20
`)

	t.Setenv("PQVIEW_LOG__LEVEL", "debug")
	t.Setenv("PQVIEW_UI__PAGE_SIZE", "75")
	t.Setenv("PQVIEW_UI__SESSION_SECRET", "from-env")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 75, cfg.UI.PageSize)
	assert.Equal(t, "from-env", cfg.UI.SessionSecret)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "pqview.yaml", "decoder: duckdb\noutput: csv\n")
	t.Setenv("PQVIEW_DECODER", "duckdb")

	flags := testFlags()
	require.NoError(t, flags.Set("decoder", "arrow"))
	require.NoError(t, flags.Set("log-level", "error"))
	require.NoError(t, flags.Set("config", cfgPath))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "arrow", cfg.Decoder, "flag value should override config file and env var")
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "csv", cfg.Output, "unset flag falls back to the file")
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "pqview.yaml", "decoder: [oops\n")

	_, err := LoadConfig(cfgPath, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)

	require.Error(t, err)
}

func TestLoadConfig_ReportsValidationErrors(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "pqview.yaml", "decoder: csv\nui:\n  page_size: 5000\n")

	_, err := LoadConfig(cfgPath, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), cfgPath)
	assert.Contains(t, err.Error(), `unknown decoder "csv"`)
	assert.Contains(t, err.Error(), "ui.page_size")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "arrow decoder", mutate: func(c *Config) { c.Decoder = "arrow" }},
		{name: "json logs", mutate: func(c *Config) { c.Log.Format = "json" }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, errSubstr: "log.level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, errSubstr: "log.format"},
		{name: "unknown decoder", mutate: func(c *Config) { c.Decoder = "pandas" }, errSubstr: "Available decoders"},
		{name: "bad locale", mutate: func(c *Config) { c.Locale = "not a locale!" }, errSubstr: "BCP 47"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xlsx" }, errSubstr: "output must be one of"},
		{name: "port range", mutate: func(c *Config) { c.UI.Port = 70000 }, errSubstr: "ui.port"},
		{name: "zero page size", mutate: func(c *Config) { c.UI.PageSize = 0 }, errSubstr: "ui.page_size"},
		{name: "upload limit", mutate: func(c *Config) { c.UI.MaxUploadMB = 0 }, errSubstr: "ui.max_upload_mb"},
		{name: "ttl", mutate: func(c *Config) { c.UI.SessionTTL = 0 }, errSubstr: "ui.session_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_LocaleTagFallsBackToEnglish(t *testing.T) {
	cfg := Default()
	cfg.Locale = "!!"

	assert.Equal(t, language.English, cfg.LocaleTag())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = NewLogger(&buf, LogConfig{Level: "verbose"})
	assert.Error(t, err)
	_, err = NewLogger(&buf, LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx), "discard fallback")
	assert.Equal(t, Default(), GetConfig(ctx))

	cfg := Default()
	cfg.Decoder = "arrow"
	ctx = context.WithValue(ctx, ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}
