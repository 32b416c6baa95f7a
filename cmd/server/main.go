package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/carecrate/internal/config"
	"github.com/hongminglow/carecrate/internal/navbar"
	"github.com/hongminglow/carecrate/internal/report"
	"github.com/hongminglow/carecrate/internal/server"
	"github.com/hongminglow/carecrate/internal/storage/backend"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}
	defer store.Close()

	profiles, err := navbar.LoadProfiles(cfg.NavbarProfilesPath)
	if err != nil {
		log.Fatalf("load navbar profiles: %v", err)
	}
	if _, ok := profiles.Lookup(cfg.NavbarVariant); !ok {
		log.Fatalf("NAVBAR_VARIANT %q is not one of %v", cfg.NavbarVariant, profiles.Variants())
	}

	mailer, err := report.NewMailer(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("init report mailer: %v", err)
	}

	srv := server.New(cfg, server.Deps{Store: store, Navbar: profiles, Mailer: mailer})

	go func() {
		log.Printf("CareCrate backend (%s store) listening on %s", cfg.StoreDriver, cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
