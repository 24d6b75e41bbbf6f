package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/cli/config"
	"github.com/creatorbridge/creatorbridge/internal/cli/ui"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/inspector"
	"github.com/creatorbridge/creatorbridge/internal/journal"
	"github.com/creatorbridge/creatorbridge/internal/tools"
	"github.com/creatorbridge/creatorbridge/internal/web/auth"
	"github.com/creatorbridge/creatorbridge/internal/web/ratelimit"
	"github.com/creatorbridge/creatorbridge/internal/web/router"
	"github.com/creatorbridge/creatorbridge/internal/web/server"
	"github.com/creatorbridge/creatorbridge/internal/wsbridge"
)

// NewServeCommand creates the serve command
func NewServeCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool server",
		Long: `Run the HTTP tool server. The UTCP manual is served at /utcp and each tool
at /tools/<name>.

With --editor sim (the default) the server answers from a simulated editor
seeded with a fixture. With --editor bridge it waits for the editor to
connect to /editor over websocket and forwards requests to it.

Examples:
  creatorbridge serve
  creatorbridge serve --fixture project.yaml --journal ""
  creatorbridge serve --editor bridge --secret s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(root, cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cmd, root, cfg, logger)
		},
	}

	cmd.Flags().String("host", "127.0.0.1", "Host to listen on")
	cmd.Flags().IntP("port", "p", 8585, "Port to listen on")
	cmd.Flags().Int("rate-limit", 0, "Tool calls allowed per client and minute; 0 disables the limit")
	cmd.Flags().Bool("pprof", false, "Serve pprof endpoints under /debug/pprof")
	cmd.Flags().String("editor", config.EditorSimulated, "Editor mode: sim or bridge")
	cmd.Flags().Duration("timeout", 0, "Timeout of each editor request (default 10s)")
	cmd.Flags().String("scripts", ".", "Project directory script assets are read from")
	cmd.Flags().String("journal", "creatorbridge.db", "SQLite mutation journal; empty disables it")
	cmd.Flags().String("secret", "", "JWT secret; enables bearer authentication")
	addStoreFlags(cmd)
	addLogFlags(cmd)

	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, root *rootFlags, cfg *config.Config, logger *zap.Logger) error {
	var (
		messenger host.Messenger
		closers   []func() error
		editor    *wsbridge.Bridge
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}

	switch cfg.Editor.Mode {
	case config.EditorBridge:
		bc := wsbridge.DefaultConfig()
		bc.RequestTimeout = cfg.Editor.Timeout
		bc.Logger = logger.Named("bridge")
		editor = wsbridge.New(bc)
		messenger = editor
		closers = append(closers, func() error { editor.Close(); return nil })
	default:
		simEditor, s, err := newSimEditor(ctx, cfg, logger)
		if err != nil {
			return err
		}
		messenger = simEditor
		closers = append(closers, s.Close)
	}

	var (
		observers []apply.Observer
		history   router.History
	)
	if cfg.Journal.Path != "" {
		j, err := journal.Open(ctx, cfg.Journal.Path, logger.Named("journal"))
		if err != nil {
			closeAll()
			return err
		}
		observers = append(observers, j)
		history = j
		closers = append(closers, j.Close)
	}

	insp := inspector.FromMessenger(messenger,
		afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Editor.Scripts)),
		inspector.Config{Observers: observers, Logger: logger.Named("inspector")},
	)

	var tokens *auth.TokenService
	if cfg.Auth.Secret != "" {
		tokens = auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	}

	rc := router.Config{
		Tools:     tools.New(tools.Config{Inspector: insp, Logger: logger.Named("tools")}),
		History:   history,
		Tokens:    tokens,
		Profiling: cfg.Server.Pprof,
		Logger:    logger.Named("http"),
	}
	if editor != nil {
		rc.Editor = editor
	}
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
			Capacity:        cfg.Server.RateLimit,
			RefillRate:      time.Minute,
			CleanupInterval: 5 * time.Minute,
		})
		rc.RateLimit = limiter
		closers = append(closers, limiter.Close)
	}
	r := router.NewRouter(rc)

	sc := server.DefaultConfig(r)
	sc.Address = cfg.Address()
	sc.Logger = logger
	srv, err := server.New(sc)
	if err != nil {
		closeAll()
		return err
	}
	srv.RegisterHook(func(context.Context) error {
		closeAll()
		return nil
	})

	printBanner(cmd, root, cfg, tokens != nil)
	return srv.Run(ctx)
}

func printBanner(cmd *cobra.Command, root *rootFlags, cfg *config.Config, authenticated bool) {
	out := cmd.OutOrStdout()
	title := color.New(color.FgCyan, color.Bold)
	if root.noColor {
		title.DisableColor()
	}
	title.Fprintln(out, "creatorbridge tool server")

	t := ui.NewKeyValueTable(out, root.noColor)
	t.AddRow("Manual", fmt.Sprintf("http://%s/utcp", cfg.Address()))
	t.AddRow("Editor", cfg.Editor.Mode)
	switch cfg.Editor.Mode {
	case config.EditorBridge:
		t.AddRow("Editor endpoint", fmt.Sprintf("ws://%s/editor", cfg.Address()))
	default:
		fixture := cfg.Store.Fixture
		if fixture == "" {
			fixture = "built-in demo"
		}
		t.AddRow("Store", cfg.Store.Backend)
		t.AddRow("Fixture", fixture)
	}
	journalPath := cfg.Journal.Path
	if journalPath == "" {
		journalPath = "disabled"
	}
	t.AddRow("Journal", journalPath)
	t.AddRow("Auth", strconv.FormatBool(authenticated))
	if cfg.Server.RateLimit > 0 {
		t.AddRow("Rate limit", fmt.Sprintf("%d calls/min", cfg.Server.RateLimit))
	}
	t.Render()
	fmt.Fprintln(out)
}
