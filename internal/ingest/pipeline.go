package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/search"
)

// Sources names the raw files one ingestion run reads.
type Sources struct {
	CatalogFile   string
	BrandInfoFile string
	ReviewsFile   string
	TicketsFile   string
}

// Indexer is the slice of the vector index gateway the pipeline needs.
type Indexer interface {
	ReplaceAll(ctx context.Context, chunks []search.DocumentChunk) error
}

// Run executes one full ingestion pass: normalize every configured source,
// chunk, and fully replace the vector index. A failing source contributes
// zero documents but does not stop the run; producing zero documents overall
// aborts the run with an error (the caller decides whether that is fatal).
func Run(ctx context.Context, src Sources, index Indexer) error {
	log := logrus.WithField("component", "ingest")
	log.Info("starting data ingestion")

	var docs []ParsedDocument

	products, err := catalog.LoadProductsCSV(src.CatalogFile)
	if err != nil {
		log.Warnf("product catalog source unavailable: %v", err)
	} else {
		productDocs := ProductDocuments(products)
		log.Infof("created %d product documents from %d products", len(productDocs), len(products))
		docs = append(docs, productDocs...)
	}

	brandDocs, err := LoadBrandInfo(src.BrandInfoFile)
	if err != nil {
		log.Warnf("brand info source unavailable: %v", err)
	} else {
		log.Infof("loaded %d brand info document(s)", len(brandDocs))
		docs = append(docs, brandDocs...)
	}

	reviewDocs, err := LoadReviews(src.ReviewsFile)
	if err != nil {
		log.Warnf("reviews source unavailable: %v", err)
	} else {
		log.Infof("loaded %d review document(s)", len(reviewDocs))
		docs = append(docs, reviewDocs...)
	}

	ticketDocs, err := LoadTickets(src.TicketsFile)
	if err != nil {
		log.Warnf("tickets source unavailable: %v", err)
	} else {
		log.Infof("loaded %d ticket document(s)", len(ticketDocs))
		docs = append(docs, ticketDocs...)
	}

	if len(docs) == 0 {
		return errors.New("no documents produced from any source, aborting ingestion")
	}
	log.Infof("total parsed documents from all sources: %d", len(docs))

	chunks := ChunkDocuments(docs)
	if len(chunks) == 0 {
		return errors.New("no chunks created from parsed documents, aborting ingestion")
	}
	log.Infof("created %d chunks from %d parsed documents", len(chunks), len(docs))

	if err := index.ReplaceAll(ctx, chunks); err != nil {
		return fmt.Errorf("replace vector index: %w", err)
	}

	log.Info("data ingestion completed")
	return nil
}
