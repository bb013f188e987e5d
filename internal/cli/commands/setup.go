package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqview/internal/cli/config"
	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Decoder decode.Decoder
}

// NewCommandContext collects the config and logger the root command stored
// in the context and builds the configured decoder.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	d, err := decode.New(cfg.Decoder, logger)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Decoder: d,
	}, nil
}

// readFile reads a parquet file from disk, checking the extension before
// touching its contents.
func readFile(path string) (string, []byte, error) {
	name := filepath.Base(path)
	if err := decode.Validate(name); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return name, data, nil
}

// loadStore decodes path into a Row Store.
func (c *CommandContext) loadStore(ctx context.Context, path string) (*rowstore.Store, error) {
	name, data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	store, err := decode.Load(ctx, c.Decoder, name, data)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("file loaded", "file", name, "rows", store.TotalRows(), "decoder", c.Decoder.Name())
	return store, nil
}
