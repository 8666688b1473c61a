package search

import "github.com/conversational-store/backend/internal/catalog"

// SourceType tags where a document came from. Kept as a closed set so every
// consumer can switch exhaustively instead of comparing loose strings.
type SourceType string

const (
	SourceProductInfo    SourceType = "product_info"
	SourceBrandInfo      SourceType = "brand_info"
	SourceReview         SourceType = "review"
	SourceCustomerTicket SourceType = "customer_ticket"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceProductInfo, SourceBrandInfo, SourceReview, SourceCustomerTicket:
		return true
	}
	return false
}

// Metadata keys every chunk must carry so it can be rebuilt ("hydrated") from
// its id plus its own metadata alone.
const (
	MetaOriginalDocID = "original_doc_id"
	MetaSourceType    = "source_type"
	MetaProductID     = "product_id"
	MetaProductName   = "product_name"
	MetaRating        = "rating"
)

// DocumentChunk is the unit of retrieval: a fixed-size overlapping window of
// a parsed document, carrying the parent's metadata plus recovery fields.
type DocumentChunk struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	TextChunk  string         `json:"text_chunk"`
	SourceType SourceType     `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RetrievedChunk is one nearest-neighbor hit. Distance orders the batch and
// is not surfaced beyond it.
type RetrievedChunk struct {
	ID        string
	TextChunk string
	Metadata  map[string]any
	Distance  float64
}

// SourceType reads the recovery source type out of a retrieved chunk's
// metadata.
func (r RetrievedChunk) SourceType() SourceType {
	if v, ok := r.Metadata[MetaSourceType].(string); ok {
		return SourceType(v)
	}
	return ""
}

// Hydrate rebuilds a full DocumentChunk from the retrieved row. It fails when
// the recovery metadata is incomplete or carries an unknown source type.
func (r RetrievedChunk) Hydrate() (DocumentChunk, bool) {
	docID, _ := r.Metadata[MetaOriginalDocID].(string)
	st := r.SourceType()
	if r.ID == "" || docID == "" || r.TextChunk == "" || !st.IsValid() {
		return DocumentChunk{}, false
	}
	return DocumentChunk{
		ChunkID:    r.ID,
		DocumentID: docID,
		TextChunk:  r.TextChunk,
		SourceType: st,
		Metadata:   r.Metadata,
	}, true
}

type SearchQuery struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ProductResult pairs an authoritative catalog product with the model's
// justification and the review chunks backing the recommendation.
type ProductResult struct {
	Product           catalog.Product `json:"product"`
	Justification     string          `json:"justification,omitempty"`
	SupportingReviews []DocumentChunk `json:"supporting_reviews"`
}

type SearchResponse struct {
	SessionID               string          `json:"session_id,omitempty"`
	Results                 []ProductResult `json:"results"`
	RAGContexts             []DocumentChunk `json:"rag_contexts"`
	FollowUpQuestions       []string        `json:"follow_up_questions"`
	Answer                  string          `json:"answer,omitempty"`
	ContextualJustification string          `json:"contextual_justification,omitempty"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one conversational exchange half, in the generative API's
// role/parts shape.
type Turn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}
