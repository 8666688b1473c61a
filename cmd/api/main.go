package main

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/config"
	"github.com/conversational-store/backend/internal/db"
	apphttp "github.com/conversational-store/backend/internal/http"
	"github.com/conversational-store/backend/internal/ingest"
	"github.com/conversational-store/backend/internal/llm"
	"github.com/conversational-store/backend/internal/search"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()
	cfg := config.Load()

	pool := db.NewPool(cfg.DatabaseURL)
	defer pool.Close()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
	if err != nil {
		logrus.Fatalf("failed to init Gemini client: %v", err)
	}

	repo := search.NewPgRepository(pool)
	index := search.NewIndex(repo, geminiClient)
	if err := index.InitSchema(ctx); err != nil {
		logrus.Fatalf("failed to init vector schema: %v", err)
	}

	catalogCache := catalog.NewCache(cfg.CatalogFile)
	sessions := search.NewSessionStore()
	searchService := search.NewService(index, catalogCache, geminiClient, sessions)

	if cfg.IngestOnStart {
		// An ingestion failure leaves the previous collection in place; the
		// API keeps serving whatever is indexed.
		if err := ingest.Run(ctx, sourcesFromConfig(cfg), index); err != nil {
			logrus.Errorf("startup ingestion failed: %v", err)
		}
	}

	h := apphttp.NewHandler(searchService, catalogCache)
	router := apphttp.NewRouter(h)
	handler := corsMiddleware(router)

	addr := ":" + cfg.Port
	logrus.Infof("API listening on %s", addr)
	logrus.Fatal(http.ListenAndServe(addr, handler))
}

func sourcesFromConfig(cfg *config.Config) ingest.Sources {
	return ingest.Sources{
		CatalogFile:   cfg.CatalogFile,
		BrandInfoFile: cfg.BrandInfoFile,
		ReviewsFile:   cfg.ReviewsFile,
		TicketsFile:   cfg.TicketsFile,
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
