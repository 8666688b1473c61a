package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/config"
	"github.com/conversational-store/backend/internal/db"
	"github.com/conversational-store/backend/internal/ingest"
	"github.com/conversational-store/backend/internal/llm"
	"github.com/conversational-store/backend/internal/search"
)

func main() {
	_ = godotenv.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dataDir := flag.String("data-dir", "", "base directory for source files (overrides DATA_DIR)")
	catalogFile := flag.String("catalog", "", "product catalog CSV path")
	brandFile := flag.String("brand-info", "", "brand info path (.txt/.md/.html/.pdf)")
	reviewsFile := flag.String("reviews", "", "verified reviews TSV path")
	ticketsFile := flag.String("tickets", "", "customer tickets TSV path")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	src := ingest.Sources{
		CatalogFile:   cfg.CatalogFile,
		BrandInfoFile: cfg.BrandInfoFile,
		ReviewsFile:   cfg.ReviewsFile,
		TicketsFile:   cfg.TicketsFile,
	}
	if *dataDir != "" {
		src.CatalogFile = filepath.Join(*dataDir, "skincare_catalog.csv")
		src.BrandInfoFile = filepath.Join(*dataDir, "brand_info.txt")
		src.ReviewsFile = filepath.Join(*dataDir, "verified_reviews.txt")
		src.TicketsFile = filepath.Join(*dataDir, "customer_tickets.txt")
	}
	if *catalogFile != "" {
		src.CatalogFile = *catalogFile
	}
	if *brandFile != "" {
		src.BrandInfoFile = *brandFile
	}
	if *reviewsFile != "" {
		src.ReviewsFile = *reviewsFile
	}
	if *ticketsFile != "" {
		src.TicketsFile = *ticketsFile
	}

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

	if err := ingest.Run(ctx, src, index); err != nil {
		logrus.Fatalf("ingestion failed: %v", err)
	}
}
