package main

import (
	"context"
	"fmt"
	"os"

	"huddle/internal/cache"
	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/repository"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Huddle account administration",
	Long: `Manage Huddle accounts from the command line.

Connection settings are read from config.yml and the environment, the same
way the API server reads them.

Examples:
  admin promote 64b7f0c2e4b0a1a2b3c4d5e6   # Grant admin rights
  admin demote 64b7f0c2e4b0a1a2b3c4d5e6    # Revoke admin rights
  admin list-admins --json                 # List admins as JSON
  admin token 64b7f0c2e4b0a1a2b3c4d5e6     # Mint a development token`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// openStore loads the configuration and connects to the configured store.
// Redis is connected too so admin changes evict the server's cached users.
func openStore(ctx context.Context) (*config.Config, *repository.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cache.InitRedis(cfg.RedisURL)
	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, store, nil
}
