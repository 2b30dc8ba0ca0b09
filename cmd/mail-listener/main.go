package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"materiais/internal/config"
	"materiais/internal/listener"
	"materiais/internal/logger"
	"materiais/internal/pipeline"
	"materiais/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logger.New(cfg.LogLevel).With().Str("component", "mail-listener").Logger()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	importer := pipeline.NewImportService(db, db, pipeline.OptionsFromConfig(cfg), log)
	svc := listener.NewService(db, importer, cfg, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("provider", cfg.MailListenerProvider).Int("interval_sec", cfg.MailListenerIntervalSec).Msg("mail listener started")
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
