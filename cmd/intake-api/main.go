package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/homecare-labs/intake-api/internal/adapters/http"
	"github.com/homecare-labs/intake-api/internal/adapters/llm"
	firestorestore "github.com/homecare-labs/intake-api/internal/adapters/storage/firestore"
	memstore "github.com/homecare-labs/intake-api/internal/adapters/storage/memory"
	sqlitestore "github.com/homecare-labs/intake-api/internal/adapters/storage/sqlite"
	"github.com/homecare-labs/intake-api/internal/app/intake"
	"github.com/homecare-labs/intake-api/internal/app/review"
	"github.com/homecare-labs/intake-api/internal/config"
	"github.com/homecare-labs/intake-api/internal/domain"
	"github.com/homecare-labs/intake-api/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}

	logger := observability.Logger()

	var gateway domain.ChatModel
	if cfg.UseMockLLM {
		logger.Info("using mock chat model")
		gateway = llm.NewMockChat()
	} else {
		logger.Info("using Gemini chat model", "model", cfg.ModelName)
		gateway, err = llm.NewGeminiClient(ctx, llm.Options{
			APIKey:    cfg.GeminiAPIKey,
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			Model:     cfg.ModelName,
		})
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	}

	var interviews domain.InterviewStore
	var profiles domain.ProfileStore

	switch cfg.StorageBackend {
	case "firestore":
		logger.Info("using Firestore storage", "project", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		defer store.Close()
		interviews, profiles = store, store

	case "sqlite":
		logger.Info("using SQLite storage", "path", cfg.DBPath)
		store, err := sqlitestore.NewStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer store.Close()
		interviews, profiles = store, store

	default:
		logger.Info("using in-memory storage")
		store := memstore.NewStore()
		interviews, profiles = store, store
	}

	intakeSvc := intake.NewService(gateway, interviews, profiles, cfg.DefaultLanguage)
	reviewSvc := review.NewService(interviews)

	handler := httpadapter.NewServer(intakeSvc, reviewSvc, cfg.FrontendURL)

	addr := ":" + cfg.Port
	logger.Info("intake API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
