package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/creatorbridge/creatorbridge/internal/web/auth"
)

// ErrNoSecret is returned when a token is requested without a signing secret
var ErrNoSecret = errors.New("auth.secret is not set")

// NewTokenCommand creates the token command
func NewTokenCommand(root *rootFlags) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the tool server",
		Long: `Print a signed JWT accepted by a server started with the same secret.
Pass it as "Authorization: Bearer <token>", or as ?token=<token> on the
editor websocket.

Examples:
  creatorbridge token --secret s3cret
  CREATORBRIDGE_AUTH_SECRET=s3cret creatorbridge token --subject ci --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(root, cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return ErrNoSecret
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.Auth.TokenTTL
			}

			tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, ttl)
			token, err := tokens.GenerateToken(subject, scopes)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("secret", "", "JWT secret (default auth.secret)")
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scopes to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime; zero means no expiry (default auth.token_ttl)")

	return cmd
}
