package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/session"
)

// Validate checks if the configuration is valid. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if !slices.Contains(decode.List(), c.Decoder) {
		errs = append(errs, &decode.UnknownDecoderError{Name: c.Decoder, Available: decode.List()})
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale %q is not a valid BCP 47 tag: %w", c.Locale, err))
	}
	if !slices.Contains(OutputFormats, c.Output) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(OutputFormats, "|"), c.Output))
	}
	if c.UI.Port < 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port out of range: %d", c.UI.Port))
	}
	if c.UI.PageSize < 1 || c.UI.PageSize > session.MaxPageSize {
		errs = append(errs, fmt.Errorf("ui.page_size must be between 1 and %d, got %d", session.MaxPageSize, c.UI.PageSize))
	}
	if c.UI.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("ui.max_upload_mb must be positive, got %d", c.UI.MaxUploadMB))
	}
	if c.UI.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("ui.session_ttl must be positive, got %s", c.UI.SessionTTL))
	}

	return errors.Join(errs...)
}
