package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/channels/discord"
	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
	"github.com/zarathos291x/Character-Engine-Discord/internal/integrations"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store/sqldb"
)

const startTimeout = 30 * time.Second

func runBot() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(log)

	cfg, err := config.Load(config.ResolvePath(cfgFile))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireToken(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := sqldb.Open(cfg.Database.PostgresDSN, cfg.Database.SQLitePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database ready", "driver", db.Driver())

	stores := sqldb.NewStores(db)
	svc := integrations.NewService(cfg.Integrations, stores, log)

	bot, err := discord.New(*cfg, stores, svc, log)
	if err != nil {
		slog.Error("failed to create discord channel", "error", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	err = bot.Start(startCtx)
	cancel()
	if err != nil {
		slog.Error("failed to start discord channel", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("graceful shutdown initiated", "signal", sig.String())

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bot.Stop(stopCtx); err != nil {
		slog.Warn("discord shutdown", "error", err)
	}
}
