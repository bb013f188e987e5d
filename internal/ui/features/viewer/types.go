package viewer

import (
	"log/slog"

	"golang.org/x/text/language"
)

const (
	cookieName   = "pqview"
	sessionIDKey = "sid"
	uploadField  = "file"
	pageTitle    = "Viewer"

	// DefaultMaxUploadBytes bounds the size of an uploaded file.
	DefaultMaxUploadBytes int64 = 512 << 20
)

// Options configures the viewer handlers.
type Options struct {
	Locale         language.Tag
	MaxUploadBytes int64
	Logger         *slog.Logger
}
