package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"huddle/internal/config"
	"huddle/internal/server"
	"huddle/internal/service"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user_id>",
	Short: "Mint an access token for a user",
	Long: `Mint a signed access token for an existing user. Intended for local
development and smoke tests; tokens are signed with JWT_SECRET.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(ctx) }()
		return runToken(ctx, cfg, service.NewUserService(store.Users), cmd.OutOrStdout(), args[0], tokenTTL)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}

func runToken(ctx context.Context, cfg *config.Config, users *service.UserService, w io.Writer, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}
	if _, err := users.GetProfile(ctx, userID); err != nil {
		return fmt.Errorf("lookup user %s: %w", userID, err)
	}
	token, err := server.GenerateToken(cfg, userID, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
