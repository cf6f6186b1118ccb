package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cotin/chatcotin/config"
	"github.com/cotin/chatcotin/controller"
	"github.com/cotin/chatcotin/embeddings"
	"github.com/cotin/chatcotin/llm"
	"github.com/cotin/chatcotin/services"
	"github.com/cotin/chatcotin/vectorindex"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Optional .env for local development; environment wins over the file.
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

	generator, err := newGenerator(context.Background(), cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create generation backend: %v", err)
	}

	invoker := llm.NewInvoker(
		generator,
		cfg.Generation.MaxAttempts,
		time.Duration(cfg.Generation.BaseDelayMS)*time.Millisecond,
		cfg.Generation.ContextChars,
		cfg.Generation.ShrunkChars,
		cfg.Generation.HistoryChars,
	)

	answerService := services.NewAnswerService(cfg, provider, store, invoker)
	collectionService := services.NewCollectionService(cfg, store)
	chatController := controller.NewChatController(answerService, collectionService)

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", chatController.Health)
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatController.Chat)
		apiV1.GET("/collection", chatController.Collection)
	}

	log.Printf("ChatCOTIN server starting on %s", cfg.HTTPAddr)
	log.Printf("  POST http://localhost%s/api/v1/chat", cfg.HTTPAddr)
	log.Printf("  GET  http://localhost%s/api/v1/collection", cfg.HTTPAddr)

	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
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

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	if cfg.Generation.Backend == "gemini" {
		return llm.NewGeminiGenerator(ctx, os.Getenv(cfg.Generation.GeminiKeyEnv), cfg.Generation.GeminiModel)
	}
	return llm.NewOllamaGenerator(
		cfg.Generation.OllamaBaseURL,
		cfg.Generation.OllamaModel,
		time.Duration(cfg.Generation.TimeoutSecs)*time.Second,
	), nil
}
