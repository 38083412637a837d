package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/shell"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var dsn = flag.String("db", "", "Database DSN, overrides the config file")
	flag.Parse()

	config, err := app.LoadConfigOrDefault(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	if *dsn != "" {
		config.Database.DSN = *dsn
	}

	service, err := app.NewService(config)
	if err != nil {
		logger.Error.Fatalf("Failed to start gradebook: %v", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			logger.Error.Printf("Failed to shut down cleanly: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info.Printf("Gradebook ready, database %s", config.Database.DSN)
	sh := shell.New(service, os.Stdout, shell.WithPrompt())
	if err := sh.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error.Printf("Shell stopped: %v", err)
	}
}
