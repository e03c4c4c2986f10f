package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"swiftly/internal/config"
	"swiftly/internal/indexer"
	"swiftly/internal/llm"
	"swiftly/internal/storage"
	"swiftly/internal/vectorstore"
)

var rootCmd = &cobra.Command{
	Use:   "notectl",
	Short: "Admin CLI for the swiftly notes backend",
	Long:  `Administrative operations against the notes database and vector index, using the same configuration as the API server.`,
}

var addUserCmd = &cobra.Command{
	Use:   "add-user <name>",
	Short: "Register a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		user, err := storage.NewUserRepo(db).Create(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("Created user %s (%s)\n", user.Name, user.ID)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed notes that missed index synchronization",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()

		ctx := context.Background()

		index, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantVectorSize)
		if err != nil {
			return fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		if err := index.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}

		noteRepo := storage.NewNoteRepo(db)
		embedder := llm.NewEmbeddingsClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.QdrantVectorSize, cfg.ProviderTimeout)
		synchronizer := indexer.NewSynchronizer(embedder, index, noteRepo, cfg.SyncTimeout)

		if err := synchronizer.Reconcile(ctx); err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}

		fmt.Println("Reconciliation complete")
		return nil
	},
}

func main() {
	// Keep CLI output clean; slog still goes to stderr for warnings.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	rootCmd.AddCommand(addUserCmd)
	rootCmd.AddCommand(reindexCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
