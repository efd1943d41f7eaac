package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/postpilot-cms/postpilot/internal/app"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrate {
		if err := app.Migrate(ctx, *configPath); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations applied")
		return
	}

	if err := app.RunServer(ctx, *configPath); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
