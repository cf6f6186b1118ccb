package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/embeddings"
	"github.com/cotin/chatcotin/services"
	"github.com/cotin/chatcotin/vectorindex"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	watch := flag.Bool("watch", false, "keep running and rebuild when the documents folder changes")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	provider := embeddings.NewMemo(
		embeddings.NewOllamaProvider(cfg.Embedding),
		cfg.Embedding.CacheSize,
	)

	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create vector store: %v", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingest := services.NewIngestService(cfg, provider, store)

	name, err := ingest.Run(ctx)
	if err != nil {
		log.Fatalf("FATAL: Ingestion failed: %v", err)
	}
	log.Printf("Ingestion complete, serving collection %s", name)

	if *watch {
		if err := ingest.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("FATAL: Watcher failed: %v", err)
		}
	}
}

func newStore(cfg *config.Config) (vectorindex.Store, func(), error) {
	if cfg.Index.Backend == "chroma" {
		store, err := vectorindex.NewChromaStore(cfg.Index.ChromaURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("WARN: Failed to close chroma client: %v", err)
			}
		}, nil
	}
	return vectorindex.NewLocalStore(cfg.Index.DataDir), func() {}, nil
}
