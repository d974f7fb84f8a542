package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"equipment-registry-backend/internal/auth"
	"equipment-registry-backend/internal/parse"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		principal string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured in %s", c.cfgFile)
			}
			p, err := parse.ParsePrincipal(principal)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = c.cfg.Auth.TokenTTL()
			}

			token, err := auth.GenerateToken(c.cfg.Auth.JWTSecret, p, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&principal, "principal", "p", "", "principal named by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl_hours)")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}
