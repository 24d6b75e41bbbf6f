package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/cli/ui"
	"github.com/creatorbridge/creatorbridge/internal/web/auth"
	"github.com/creatorbridge/creatorbridge/internal/wsbridge"
)

// NewSimulateCommand creates the simulate command
func NewSimulateCommand(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Connect a simulated editor to a bridge-mode server",
		Long: `Connect a simulated editor to a server running with --editor bridge and
answer its requests until interrupted. Useful to exercise the websocket
bridge without a real editor.

Examples:
  creatorbridge simulate
  creatorbridge simulate --url ws://127.0.0.1:8585/editor --fixture project.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(root, cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			editor, s, err := newSimEditor(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			header := http.Header{}
			if cfg.Auth.Secret != "" {
				tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, time.Hour)
				token, err := tokens.GenerateToken("simulated-editor", nil)
				if err != nil {
					return fmt.Errorf("mint token: %w", err)
				}
				header.Set("Authorization", "Bearer "+token)
			}

			conn, err := wsbridge.Dial(ctx, cfg.Editor.URL, header)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.EditorUnavailableError(err.Error(), root.noColor))
				return &reportedError{err: err}
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "connected to "+cfg.Editor.URL, root.noColor)

			logger.Info("simulated editor connected", zap.String("url", cfg.Editor.URL))
			return wsbridge.Serve(ctx, conn, editor, logger.Named("agent"))
		},
	}

	cmd.Flags().String("url", "ws://127.0.0.1:8585/editor", "Editor endpoint of the server")
	cmd.Flags().String("secret", "", "JWT secret of the server")
	addStoreFlags(cmd)
	addLogFlags(cmd)

	return cmd
}
