package ingest

import (
	"github.com/google/uuid"

	"github.com/conversational-store/backend/internal/search"
)

// Sliding-window chunking constants. The step is ChunkSize-ChunkOverlap so
// neighboring chunks share ChunkOverlap runes of context.
const (
	ChunkSize    = 512
	ChunkOverlap = 50
)

// ChunkDocuments splits each document's content into fixed-size overlapping
// windows. For the same input the chunk texts and counts are deterministic;
// only the chunk ids are fresh per run, which is fine because ingestion fully
// replaces the index. A document shorter than the window yields one chunk.
func ChunkDocuments(docs []ParsedDocument) []search.DocumentChunk {
	var all []search.DocumentChunk
	for _, doc := range docs {
		text := []rune(doc.Content)
		if len(text) == 0 {
			continue
		}

		for start := 0; ; start += ChunkSize - ChunkOverlap {
			end := start + ChunkSize
			if end > len(text) {
				end = len(text)
			}

			metadata := make(map[string]any, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata[search.MetaOriginalDocID] = doc.ID
			metadata[search.MetaSourceType] = string(doc.SourceType)

			all = append(all, search.DocumentChunk{
				ChunkID:    uuid.NewString(),
				DocumentID: doc.ID,
				TextChunk:  string(text[start:end]),
				SourceType: doc.SourceType,
				Metadata:   metadata,
			})

			if end >= len(text) {
				break
			}
		}
	}
	return all
}
