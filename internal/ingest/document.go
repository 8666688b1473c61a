package ingest

import "github.com/conversational-store/backend/internal/search"

// ParsedDocument is the uniform representation every raw source is normalized
// into before chunking. Catalog-derived documents get deterministic ids so
// re-ingestion of unchanged sources produces identical document identity.
type ParsedDocument struct {
	ID         string
	SourceType search.SourceType
	Content    string
	Metadata   map[string]any
}
