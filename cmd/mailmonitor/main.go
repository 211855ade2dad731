package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"applicant-tracker/internal/config"
	"applicant-tracker/internal/convert"
	"applicant-tracker/internal/extract"
	"applicant-tracker/internal/mailbox"
	"applicant-tracker/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "scan the mailbox once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	if err := cfg.ValidateMail(); err != nil {
		log.Fatal("config:", err)
	}

	log.Println("Connecting to database...")
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open:", err)
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		log.Fatal("db schema:", err)
	}

	ingestor := mailbox.NewIngestor(db, convert.New(cfg.ConvertTimeout), extract.NewProseExtractor())
	poller := mailbox.NewPoller(cfg, ingestor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Watching %s on %s", cfg.IMAPFolder, cfg.IMAPHost)
	if err := poller.Run(ctx, *once); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("poller:", err)
	}
}
