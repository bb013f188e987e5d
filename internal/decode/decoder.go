// Package decode turns uploaded parquet bytes into a row store.
//
// The binary format itself is handled by third-party libraries behind the
// Decoder interface; this package only validates the input, invokes a
// backend and wraps its failures.
package decode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// Extension is the only file extension accepted for decoding.
const Extension = ".parquet"

// ErrorPrefix starts the message of every decode failure shown to users.
const ErrorPrefix = "Failed to parse parquet file: "

// ErrUnsupportedFileType is returned, before any decode is attempted, for
// files whose name does not end in Extension.
var ErrUnsupportedFileType = errors.New("please select a " + Extension + " file")

// Field is a column of the file schema as the backend reports it.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Records is the raw output of a decoder: rows in file order plus the
// fields of the file schema in declaration order.
type Records struct {
	Fields []Field
	Rows   []rowstore.Row
}

// Names returns the field names in schema order.
func (r *Records) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Decoder decodes the complete bytes of a parquet file.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, data []byte) (*Records, error)
}

// Error is a decode failure with a human-readable message.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	msg := "Unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return ErrorPrefix + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validate rejects file names without the parquet extension.
func Validate(name string) error {
	if !strings.HasSuffix(name, Extension) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, name)
	}
	return nil
}

// Load validates name, decodes data with d and builds a row store from the
// result. Decoder failures are returned as *Error.
func Load(ctx context.Context, d Decoder, name string, data []byte) (*rowstore.Store, error) {
	recs, err := Read(ctx, d, name, data)
	if err != nil {
		return nil, err
	}
	return rowstore.New(name, recs.Names(), recs.Rows), nil
}

// Read is Load without building the store.
func Read(ctx context.Context, d Decoder, name string, data []byte) (*Records, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	recs, err := d.Decode(ctx, data)
	if err != nil {
		return nil, &Error{Err: err}
	}
	return recs, nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Decoder)
)

// Register adds a decoder factory under name. Backends call it from init.
func Register(name string, factory func(*slog.Logger) Decoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates the decoder registered under name. A nil logger discards.
func New(name string, logger *slog.Logger) (Decoder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownDecoderError{Name: name, Available: List()}
	}
	return factory(logger), nil
}

// List returns the registered decoder names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDecoderError is returned by New for an unregistered name.
type UnknownDecoderError struct {
	Name      string
	Available []string
}

func (e *UnknownDecoderError) Error() string {
	return fmt.Sprintf("unknown decoder %q\nAvailable decoders: %v\nHint: check decoder in pqview.yaml", e.Name, e.Available)
}
