package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/config"
	"aiverse.club/internal/migrate"
	"aiverse.club/internal/obs"
	"aiverse.club/internal/store/pg"
)

var (
	cfgFile string
	dsnFlag string
	timeout time.Duration
	log     *logrus.Logger
)

func main() {
	_ = godotenv.Load()
	log = obs.NewLogger(obs.LogOptions{Level: "info", Format: "text", Output: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}
}

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply aiverse.club schema migrations and seeds",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "PostgreSQL DSN (overrides database.dsn)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")

	rootCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: withManager(runUp)},
		&cobra.Command{Use: "down", Short: "Revert the latest migration", RunE: withManager(runDown)},
		&cobra.Command{Use: "status", Short: "List applied migrations and seeds", RunE: withManager(runStatus)},
		&cobra.Command{Use: "seed", Short: "Apply seeds and ensure the configured super admin", RunE: withManager(runSeed)},
	)
}

type env struct {
	cfg   *config.Config
	store *pg.Store
	mgr   *migrate.Manager
}

func withManager(fn func(context.Context, *cobra.Command, env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dsnFlag != "" {
			cfg.Database.DSN = dsnFlag
		}
		if cfg.Database.DSN == "" {
			return errors.New("missing DSN: provide --dsn or AIVERSE_DATABASE_DSN")
		}
		log.SetLevel(logLevel(cfg.Logs.Level))

		store, err := pg.Open(cfg.Database.DSN, pg.PoolOptions{MaxOpenConns: 2})
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		mgr := migrate.NewManager(store.DB(), migrate.WithLogger(log))
		return fn(ctx, cmd, env{cfg: cfg, store: store, mgr: mgr})
	}
}

func runUp(ctx context.Context, cmd *cobra.Command, e env) error {
	applied, err := e.mgr.Up(ctx)
	for _, name := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
	}
	if err == nil && len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to apply")
	}
	return err
}

func runDown(ctx context.Context, cmd *cobra.Command, e env) error {
	name, err := e.mgr.Down(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "reverted", name)
	return nil
}

func runStatus(ctx context.Context, cmd *cobra.Command, e env) error {
	history, err := e.mgr.Status(ctx)
	if err != nil {
		return err
	}
	for _, item := range history {
		fmt.Fprintln(cmd.OutOrStdout(), item)
	}
	return nil
}

func runSeed(ctx context.Context, cmd *cobra.Command, e env) error {
	applied, err := e.mgr.Seed(ctx)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), "seeded", name)
	}

	if !e.cfg.Seed.Enabled() {
		log.Info("no super admin seed configured")
		return nil
	}
	accounts := auth.NewAccountService(e.store, auth.NewHasher(e.cfg.Auth.BcryptCost))
	created, err := accounts.EnsureSuperAdmin(ctx, auth.SuperAdminSeed{
		Username: e.cfg.Seed.SuperAdmin.Username,
		Email:    e.cfg.Seed.SuperAdmin.Email,
		Password: e.cfg.Seed.SuperAdmin.Password,
	})
	if err != nil {
		return fmt.Errorf("ensure super admin: %w", err)
	}
	if created {
		fmt.Fprintln(cmd.OutOrStdout(), "created super admin", e.cfg.Seed.SuperAdmin.Username)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "super admin already present")
	}
	return nil
}

func logLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
