package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var classID = flag.String("class", "", "Class to export; empty exports everything")
	var out = flag.String("out", "", "Output CSV path; empty writes to stdout")
	flag.Parse()

	config, err := app.LoadConfigOrDefault(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	service, err := app.NewService(config)
	if err != nil {
		logger.Error.Fatalf("Failed to init service: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var n int
	switch {
	case *out == "" && *classID != "":
		n, err = service.ExportClass(ctx, *classID, os.Stdout)
	case *out == "":
		n, err = service.ExportAll(ctx, os.Stdout)
	case *classID != "":
		_, n, err = service.ExportClassToFile(ctx, *classID, *out)
	default:
		_, n, err = service.ExportAllToFile(ctx, *out)
	}
	if err != nil {
		service.Close()
		logger.Error.Fatalf("Export failed: %v", err)
	}

	logger.Info.Printf("Exported %d rows", n)
}
