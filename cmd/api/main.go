package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swiftly/internal/config"
	"swiftly/internal/http"
	"swiftly/internal/indexer"
	"swiftly/internal/llm"
	"swiftly/internal/rag"
	"swiftly/internal/service"
	"swiftly/internal/storage"
	"swiftly/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	userRepo := storage.NewUserRepo(db)
	noteRepo := storage.NewNoteRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector index
	index, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantVectorSize)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Provider clients are process-wide and built once.
	embedder := llm.NewEmbeddingsClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.QdrantVectorSize, cfg.ProviderTimeout)
	chatClient := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.ProviderTimeout)
	transcriber := llm.NewTranscriptionClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.TranscriptionModel, cfg.ProviderTimeout)

	// Validate embedding dimension (fail-fast)
	probe, err := embedder.Embed(ctx, "test")
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(probe) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(probe))
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.QdrantVectorSize)

	synchronizer := indexer.NewSynchronizer(embedder, index, noteRepo, cfg.SyncTimeout)
	engine := rag.NewEngine(embedder, index, noteRepo, chatClient, cfg.MaxContextChars)
	noteService := service.NewNoteService(userRepo, noteRepo, synchronizer, transcriber, chatClient, engine)
	slog.Info("Retrieval engine initialized")

	router := http.NewRouter(&http.Deps{
		NoteService: noteService,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background sweep for notes that missed index synchronization
	if cfg.ReconcileInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ReconcileInterval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if err := synchronizer.Reconcile(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
						slog.Error("Reconciliation sweep failed", "error", err)
					}
				}
			}
		}()
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("Starting API server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	<-rootCtx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	// Drain in-flight index synchronizations before closing the database
	synchronizer.Wait()
	slog.Info("Shutdown complete")
}
