package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"campusmind/internal/chunker"
	"campusmind/internal/config"
	"campusmind/internal/embedding/openai"
	"campusmind/internal/index"
	"campusmind/internal/ingest"
	"campusmind/internal/llm/groq"
	"campusmind/internal/query"
	"campusmind/internal/server"
	"campusmind/internal/storage/files"
	"campusmind/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	// First run: materialize the defaults so operators have a file to edit.
	if _, statErr := os.Stat(cfgPath); errors.Is(statErr, os.ErrNotExist) {
		if saveErr := config.Save(cfgPath, cfg); saveErr != nil {
			log.Warn("could not write default config", "path", cfgPath, "error", saveErr)
		}
	}

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Error("embedder init failed", "error", err)
		os.Exit(1)
	}

	generator, err := groq.NewClient(groq.Config{
		BaseURL:   cfg.Generator.BaseURL,
		APIKeyEnv: cfg.Generator.APIKeyEnv,
		Model:     cfg.Generator.Model,
		Timeout:   time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Error("generator init failed", "error", err)
		os.Exit(1)
	}

	indexStore := index.NewStore(cfg.Storage.IndexPath, cfg.Embedder.Model,
		time.Duration(cfg.Index.LockTimeoutSecs)*time.Second)

	fileStore, err := files.NewStore(cfg.Storage.DocumentsDir)
	if err != nil {
		log.Error("document store init failed", "error", err)
		os.Exit(1)
	}

	catalog, err := sqlite.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.Error("catalog init failed", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()
	if err := catalog.EnsureAdmin(context.Background(), "admin", "admin123"); err != nil {
		log.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.New(embedder, indexStore,
		chunker.Profile{Size: cfg.Chunking.Exam.Size, Overlap: cfg.Chunking.Exam.Overlap},
		chunker.Profile{Size: cfg.Chunking.General.Size, Overlap: cfg.Chunking.General.Overlap},
		log)
	engine := query.New(embedder, indexStore, generator, cfg.Retrieval.TopK, cfg.Retrieval.PreferCycle, log)

	srv := server.New(catalog, fileStore, ingestor, engine, log)

	log.Info("listening", "addr", cfg.Server.Addr, "embedder", cfg.Embedder.Model, "generator", cfg.Generator.Model)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
