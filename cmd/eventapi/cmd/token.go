package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"eventmanager/config"
	"eventmanager/internal/adapters/auth"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user (development)",
	Long: `Sign a JWT with JWT_SECRET for an existing user id. Accounts are managed by the
external authentication service; this command exists for local testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(tokenUserID); err != nil {
			return errors.New("--user must be a user UUID")
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(tokenUserID, tokenEmail, tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id (UUID) to put in the sub claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
