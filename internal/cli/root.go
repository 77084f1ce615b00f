// Package cli implements the procrastinemon CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rcliao/procrastinemon/internal/config"
	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/service"
	"github.com/rcliao/procrastinemon/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "procrastinemon",
	Short: "Daily goals with a demon that grows on what you skip",
	Long:  "Set up to three goals a day, finish the day, and watch your demon evolve. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $PROCRASTINEMON_CONFIG or ~/.procrastinemon/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $PROCRASTINEMON_DB or ~/.procrastinemon/procrastinemon.db)")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("PROCRASTINEMON_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies the --db flag on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Database.Path)
}

// openDays loads config and opens the store behind the day service. Messages
// come from the configured feedback provider, as under serve. The caller
// closes the returned store.
func openDays(ctx context.Context) (*service.Days, *store.SQLiteStore, *config.Config) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	renderer, err := newRenderer(ctx, cfg, logger.Nop())
	if err != nil {
		exitErr("feedback", err)
	}
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	return service.NewDays(s, nil, renderer, nil), s, cfg
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
