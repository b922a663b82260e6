package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/billfold/internal/logging"
	"github.com/dmitrijs2005/billfold/internal/server"
	"github.com/dmitrijs2005/billfold/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; env vars are optional overrides.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
