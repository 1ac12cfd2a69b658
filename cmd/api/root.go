package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/config"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/container"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/migrations"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/sqlite"
	"github.com/giuseppemarasca93/dietcoach/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dietcoach",
	Short: "Weekly meal plan generator",
	Long:  `dietcoach matches stored recipes to per-meal macro targets and assembles weekly meal plans, locally or through an AI provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(false)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetBool("seed")
		return serve(seed)
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Manage the PostgreSQL schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	serveCmd.Flags().Bool("seed", false, "Insert starter recipes into an empty database")

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(seed bool) error {
	options := []fx.Option{
		fx.NopLogger,
		fx.Supply(container.ConfigPath(cfgFile)),
		container.Module,
	}
	if seed {
		options = append(options, fx.Invoke(seedRecipes))
	}
	app := fx.New(options...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop application gracefully: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("application exited with code %d", exitCode)
	}
	return nil
}

func seedRecipes(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) {
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		n, err := sqlite.SeedDatabase(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to seed recipes: %w", err)
		}
		log.Info("Seeded starter recipes", zap.Int("inserted", n))
		return nil
	}))
}

func migrate(direction string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrate requires database.driver=postgres; sqlite schemas are created on startup")
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat, Development: cfg.App.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := migrations.OpenDB(cfg.GetMigrationURL())
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migrations.New(db, cfg.Database.Database, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	default:
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	}
}
