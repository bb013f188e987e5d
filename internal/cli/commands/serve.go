package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqview/internal/ui"
)

// devSessionSecret signs session cookies when ui.session_secret is unset.
const devSessionSecret = "pqview-dev-secret-change-in-production" //nolint:gosec

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the pqview browser viewer",
		Long: `Start a local web server where parquet files can be dropped or chosen,
then browsed in a grid with per-column filtering and sorting.

Each browser gets its own session; decoded files are kept in memory until the
session has been idle for ui.session_ttl.`,
		Example: `  # Start on the configured port and open a browser
  pqview serve

  # Start on a custom port without opening a browser
  pqview serve --port 3000 --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: ui.port)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	uiCfg := cc.Cfg.UI

	// CLI flags override config file
	port := uiCfg.Port
	if cmd.Flags().Changed("port") {
		port = opts.Port
	}
	autoOpen := uiCfg.AutoOpen && !opts.NoBrowser

	secret := uiCfg.SessionSecret
	if secret == "" {
		cc.Logger.Warn("ui.session_secret not set, using the development secret")
		secret = devSessionSecret
	}

	server := ui.NewServer(ui.Config{
		Decoder:        cc.Decoder,
		Port:           port,
		SessionSecret:  secret,
		SessionTTL:     uiCfg.SessionTTL,
		PageSize:       uiCfg.PageSize,
		MaxUploadBytes: uiCfg.MaxUploadBytes(),
		Locale:         cc.Cfg.LocaleTag(),
		Logger:         cc.Logger,
	})

	out := cmd.OutOrStdout()
	return server.Serve(cmd.Context(), func(addr string) {
		_, _ = fmt.Fprintf(out, "Serving pqview on %s\n", addr)
		_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")
		if autoOpen {
			go openBrowser(addr)
		}
	})
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
