package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/certs"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/scheduler"
	"github.com/Veraticus/zenith/internal/server"
	"github.com/Veraticus/zenith/internal/workspace"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the ledger, reports and AI features over HTTP for every registered
user, and catch up recurring transactions on a daily schedule.

Requests authenticate with "Authorization: Bearer <email>". With --tls
the API is served over HTTPS using a self-signed certificate kept in
server.cert_dir.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 0, "listen port (default from server.port)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	opts, err := workspaceOptions()
	if err != nil {
		return err
	}
	manager := workspace.NewManager(store, opts...)

	minPayment, err := config.MinPaymentPolicy()
	if err != nil {
		return err
	}

	var ai *assistant.Assistant
	if a, closeAI, err := newAssistant(ctx); err != nil {
		logger.Warn("AI features disabled", "error", err)
	} else {
		ai = a
		defer closeAI()
	}

	cfg := config.Server()
	var tlsConfig *tls.Config
	if cfg.TLS {
		certStore := certs.NewStore(cfg.CertDir, cfg.TLSHosts...)
		if tlsConfig, err = certStore.TLSConfig(); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		certFile, _ := certStore.Paths()
		logger.Info("serving HTTPS with self-signed certificate", "cert", certFile)
	}

	srv := server.New(server.Config{
		Store:          store,
		Manager:        manager,
		Assistant:      ai,
		Logger:         logger,
		TLS:            tlsConfig,
		AllowedOrigins: cfg.AllowedOrigins,
		MinPayment:     minPayment,
		Port:           cfg.Port,
	})

	sched := scheduler.New(ctx, logger)
	job := scheduler.NewCatchUpJob(manager, logger)
	if err := sched.AddJob(cfg.CatchUpSchedule, job); err != nil {
		return fmt.Errorf("invalid server.catchup_schedule %q: %w", cfg.CatchUpSchedule, err)
	}
	if err := sched.RunNow(job); err != nil {
		logger.Error("initial catch-up failed", "error", err)
	}
	sched.Start()
	defer sched.Stop()

	return srv.Start(ctx)
}
