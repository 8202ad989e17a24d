// Command athletecho runs the AthletEcho API server.
//
//	athletecho serve --config configs/config.yaml
//	athletecho migrate --config configs/config.yaml
//
// @title                       AthletEcho API
// @version                     1.0
// @description                 Social network for athletes: connections, messaging, feed and live subscriptions.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/database"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "athletecho",
		Short:         "AthletEcho API server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("ATHLETECHO_CONFIG", "configs/config.yaml"), "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the WebSocket gateway",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := bootstrap(configPath)
				if err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, logger)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := bootstrap(configPath)
				if err != nil {
					return err
				}
				return migrate(cmd.Context(), cfg, logger)
			},
		},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// bootstrap loads the config and installs the JSON logger.
func bootstrap(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", path, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})).With("app", cfg.App.Name, "node", cfg.App.NodeID)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("Schema applied", "host", cfg.Database.Host, "database", cfg.Database.Name)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
