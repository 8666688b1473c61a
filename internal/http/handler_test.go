package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/search"
)

type stubSearcher struct {
	resp     *search.SearchResponse
	err      error
	gotQuery search.SearchQuery
}

func (s *stubSearcher) Search(ctx context.Context, query search.SearchQuery) (*search.SearchResponse, error) {
	s.gotQuery = query
	return s.resp, s.err
}

type stubCatalog struct {
	products    []catalog.Product
	err         error
	invalidated bool
}

func (s *stubCatalog) Products() ([]catalog.Product, error) { return s.products, s.err }
func (s *stubCatalog) Invalidate()                          { s.invalidated = true }

func serveRequest(t *testing.T, searcher Searcher, productCatalog ProductCatalog, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(searcher, productCatalog))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serveRequest(t, &stubSearcher{}, &stubCatalog{}, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSearch_OK(t *testing.T) {
	searcher := &stubSearcher{resp: &search.SearchResponse{
		SessionID:         "sess-1",
		Results:           []search.ProductResult{},
		RAGContexts:       []search.DocumentChunk{},
		FollowUpQuestions: []string{"What is your skin type?"},
	}}

	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query": "serum", "session_id": "sess-1"}`))
	rec := serveRequest(t, searcher, &stubCatalog{}, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "serum", searcher.gotQuery.Query)
	assert.Equal(t, "sess-1", searcher.gotQuery.SessionID)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// Empty collections serialize as [], not null.
	assert.Equal(t, "[]", string(body["results"]))
	assert.Equal(t, "[]", string(body["rag_contexts"]))
}

func TestSearch_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":`))
	rec := serveRequest(t, &stubSearcher{}, &stubCatalog{}, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_EmptyQuery(t *testing.T) {
	searcher := &stubSearcher{err: search.ErrEmptyQuery}
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query": ""}`))
	rec := serveRequest(t, searcher, &stubCatalog{}, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_BackendFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("vector store unreachable")}
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query": "serum"}`))
	rec := serveRequest(t, searcher, &stubCatalog{}, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	// Internal failure details never leak to the client.
	assert.NotContains(t, rec.Body.String(), "vector store")
}

func TestListProducts(t *testing.T) {
	productCatalog := &stubCatalog{products: []catalog.Product{
		{ProductID: "P001", ProductName: "Bright C Serum", CurrencyCode: "USD"},
	}}

	rec := serveRequest(t, &stubSearcher{}, productCatalog, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var products []catalog.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "P001", products[0].ProductID)
}

func TestListProducts_Failure(t *testing.T) {
	productCatalog := &stubCatalog{err: errors.New("catalog file missing")}
	rec := serveRequest(t, &stubSearcher{}, productCatalog, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClearProductCache(t *testing.T) {
	productCatalog := &stubCatalog{}
	rec := serveRequest(t, &stubSearcher{}, productCatalog,
		httptest.NewRequest(http.MethodPost, "/products/clear-cache", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, productCatalog.invalidated)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := serveRequest(t, &stubSearcher{}, &stubCatalog{}, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
