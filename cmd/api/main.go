package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"aiverse.club/internal/audit"
	"aiverse.club/internal/auth"
	"aiverse.club/internal/config"
	"aiverse.club/internal/httpapi"
	"aiverse.club/internal/obs"
	"aiverse.club/internal/store/pg"
)

var (
	version = "dev"
	commit  = "none"
)

var cfgFile string

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "aiverse-api",
	Short:         "aiverse.club API server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the optional gRPC health endpoint",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aiverse-api %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default $AIVERSE_CONFIG or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required (AIVERSE_DATABASE_DSN)")
	}

	log := obs.NewLogger(obs.LogOptions{Level: cfg.Logs.Level, Format: cfg.Logs.Format})
	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.Database.DSN, pg.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return err
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	accounts := auth.NewAccountService(store, hasher)
	auditLog := audit.New(log.WithField("component", "audit"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.Enabled() {
		if err := ensureSuperAdmin(ctx, accounts, cfg.Seed, auditLog); err != nil {
			// the API still serves existing accounts
			log.WithError(err).Warn("super admin seed failed")
		}
	}

	ready := httpapi.ReadyProbe{DB: store}
	api := httpapi.New(httpapi.Deps{
		Log:      log,
		Resolver: auth.NewResolver(tokens, store, store),
		Login: auth.NewAuthenticator(tokens, hasher, store,
			auth.AccountCredentials{Accounts: store},
			auth.JuryCredentials{Jury: store},
		),
		Accounts: accounts,
		Jury:     auth.NewJuryService(store, hasher),
		Events:   store,
		Scoring:  auth.NewScoringService(store),
		Audit:    auditLog,
		Ready:    ready,
	}, httpapi.Options{
		Version:      version,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		TrustProxy:   cfg.Server.TrustProxy,
		RateLimit: httpapi.RateLimit{
			Enabled:        cfg.Server.RateLimit.Enabled,
			LoginPerMinute: cfg.Server.RateLimit.LoginPerMinute,
			APIPerMinute:   cfg.Server.RateLimit.APIPerMinute,
		},
	})
	defer api.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("addr", srv.Addr).WithField("version", version).Info("starting aiverse-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.Server.GRPCListen != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCListen)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, httpapi.NewGRPCServer(ready, log))
		go func() {
			log.WithField("addr", cfg.Server.GRPCListen).Info("starting grpc health")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.WithError(err).Error("server failed")
		stop()
		shutdown(srv, grpcServer, log)
		return err
	}
	shutdown(srv, grpcServer, log)
	log.Info("stopped")
	return nil
}

func shutdown(srv *http.Server, grpcServer *grpc.Server, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func ensureSuperAdmin(ctx context.Context, accounts *auth.AccountService, seed config.SeedConfig, auditLog *audit.Logger) error {
	created, err := accounts.EnsureSuperAdmin(ctx, auth.SuperAdminSeed{
		Username: seed.SuperAdmin.Username,
		Email:    seed.SuperAdmin.Email,
		Password: seed.SuperAdmin.Password,
	})
	if err != nil {
		return err
	}
	if created {
		_ = auditLog.Record(ctx, audit.SuperAdminSeeded, logrus.Fields{"username": seed.SuperAdmin.Username})
	}
	return nil
}
