package search

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
)

// reconcileResults keeps only model-proposed results whose product id
// resolves in the catalog and replaces every product field with the
// authoritative record; the model's product payload is advisory, used solely
// to select an id. Unresolvable results are dropped, not defaulted.
// Supporting review ids are hydrated strictly from the retrieval batch.
func reconcileResults(results []llmResult, byID map[string]catalog.Product, batch map[string]RetrievedChunk, log *logrus.Entry) []ProductResult {
	valid := make([]ProductResult, 0, len(results))
	for _, res := range results {
		authoritative, ok := byID[res.Product.ProductID]
		if !ok {
			log.Warnf("model recommended product_id %q not found in catalog, filtering out", res.Product.ProductID)
			continue
		}
		valid = append(valid, ProductResult{
			Product:           authoritative,
			Justification:     res.Justification,
			SupportingReviews: hydrateReviews(res.SupportingReviewChunkIDs, authoritative.ProductID, batch, log),
		})
	}
	return valid
}

func hydrateReviews(chunkIDs []string, productID string, batch map[string]RetrievedChunk, log *logrus.Entry) []DocumentChunk {
	reviews := make([]DocumentChunk, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		raw, ok := batch[id]
		if !ok {
			log.Warnf("model cited supporting review chunk %q for product %s outside the retrieval batch, skipping", id, productID)
			continue
		}
		chunk, ok := raw.Hydrate()
		if !ok {
			log.Warnf("supporting review chunk %q for product %s missing recovery metadata, skipping", id, productID)
			continue
		}
		if chunk.SourceType != SourceReview {
			log.Warnf("model cited non-review chunk %q (type %s) as supporting review for product %s, skipping", id, chunk.SourceType, productID)
			continue
		}
		reviews = append(reviews, chunk)
	}
	return reviews
}

// rerankByMargin orders margin-bearing results descending by margin
// percentage, followed by margin-less results in their model-given order.
// Margin never reaches user-facing text; it only shapes the order.
func rerankByMargin(results []ProductResult) []ProductResult {
	var withMargin, withoutMargin []ProductResult
	for _, r := range results {
		if r.Product.MarginPercentage != nil {
			withMargin = append(withMargin, r)
		} else {
			withoutMargin = append(withoutMargin, r)
		}
	}
	sort.SliceStable(withMargin, func(i, j int) bool {
		return *withMargin[i].Product.MarginPercentage > *withMargin[j].Product.MarginPercentage
	})
	return append(withMargin, withoutMargin...)
}

// hydrateUsedContexts resolves the model's used_rag_context_ids against the
// retrieval batch, preserving the model's citation order. Ids outside the
// batch are dropped: the model may not reference chunks it was not given.
func hydrateUsedContexts(ids []string, batch map[string]RetrievedChunk, log *logrus.Entry) []DocumentChunk {
	used := make([]DocumentChunk, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		raw, ok := batch[id]
		if !ok {
			log.Warnf("model cited used context id %q outside the retrieval batch, skipping", id)
			continue
		}
		chunk, ok := raw.Hydrate()
		if !ok {
			log.Warnf("used context %q missing recovery metadata, skipping", id)
			continue
		}
		used = append(used, chunk)
	}
	return used
}

// distributeEvidence assigns unclaimed positive review chunks from the used
// set to matching recommended products and returns the remaining chunks as
// the response's top-level evidence, in their original order. A chunk id
// never ends up both in a product's supporting reviews and in the top-level
// list.
func distributeEvidence(results []ProductResult, used []DocumentChunk) []DocumentChunk {
	claimed := make(map[string]bool)
	for _, res := range results {
		for _, rev := range res.SupportingReviews {
			claimed[rev.ChunkID] = true
		}
	}

	for i := range results {
		for _, chunk := range used {
			if claimed[chunk.ChunkID] || chunk.SourceType != SourceReview {
				continue
			}
			if !reviewMatchesProduct(chunk, results[i].Product) {
				continue
			}
			rating, _ := chunk.Metadata[MetaRating].(string)
			if ratingStars(rating) < positiveRatingStars {
				continue
			}
			results[i].SupportingReviews = append(results[i].SupportingReviews, chunk)
			claimed[chunk.ChunkID] = true
		}
	}

	topLevel := make([]DocumentChunk, 0, len(used))
	for _, chunk := range used {
		if !claimed[chunk.ChunkID] {
			topLevel = append(topLevel, chunk)
		}
	}
	return topLevel
}

// reviewMatchesProduct matches a review chunk to a product by metadata
// product id or, when no id is present, by case-insensitive product name.
func reviewMatchesProduct(chunk DocumentChunk, product catalog.Product) bool {
	if id, ok := chunk.Metadata[MetaProductID].(string); ok && id != "" {
		return id == product.ProductID
	}
	if name, ok := chunk.Metadata[MetaProductName].(string); ok && name != "" {
		return strings.EqualFold(name, product.ProductName)
	}
	return false
}
