package search

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
)

// Candidates retrieved per query before reconciliation.
const retrievalK = 10

var ErrEmptyQuery = errors.New("query is required")

type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]RetrievedChunk, error)
}

type CatalogSource interface {
	ByID() (map[string]catalog.Product, error)
}

// Service is the response reconciler: it turns a user query into an
// evidence-linked, catalog-verified SearchResponse.
type Service struct {
	retriever Retriever
	catalog   CatalogSource
	generator GenerativeClient
	sessions  *SessionStore
	log       *logrus.Entry
}

func NewService(retriever Retriever, catalog CatalogSource, generator GenerativeClient, sessions *SessionStore) *Service {
	return &Service{
		retriever: retriever,
		catalog:   catalog,
		generator: generator,
		sessions:  sessions,
		log:       logrus.WithField("component", "search"),
	}
}

// Search runs the strictly sequential reconciliation stages: retrieve,
// compose history, generate, catalog truth-check, margin re-rank, evidence
// reconciliation, session update. Generative failures degrade to a canned
// response; only retrieval-layer failures surface as errors.
func (s *Service) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	q := strings.TrimSpace(query.Query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	sessionID := query.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := s.log.WithField("session_id", sessionID)
	log.Infof("received search query: %q", q)

	retrieved, err := s.retriever.Query(ctx, q, retrievalK)
	if err != nil {
		return nil, err
	}

	history := s.sessions.History(query.SessionID)

	prompt := buildPrompt(q, retrieved)
	env, degraded := generateWithRetry(ctx, s.generator, prompt, history, log)
	if degraded != nil {
		degraded.SessionID = sessionID
		s.recordTurns(sessionID, q, degraded)
		return degraded, nil
	}

	batch := make(map[string]RetrievedChunk, len(retrieved))
	for _, c := range retrieved {
		batch[c.ID] = c
	}

	// The model's session id is untrusted like everything else it returns;
	// the caller-supplied id (or a fresh one) wins.
	resp := &SearchResponse{
		SessionID:               sessionID,
		FollowUpQuestions:       env.FollowUpQuestions,
		Answer:                  env.Answer,
		ContextualJustification: env.ContextualJustification,
	}
	if resp.FollowUpQuestions == nil {
		resp.FollowUpQuestions = []string{}
	}

	byID, err := s.catalog.ByID()
	if err != nil {
		// Catalog unavailability degrades to empty results rather than
		// failing the whole request.
		log.Warnf("could not load product catalog for result verification: %v", err)
		byID = nil
	}

	results := reconcileResults(env.Results, byID, batch, log)
	results = rerankByMargin(results)

	used := hydrateUsedContexts(env.UsedRAGContextIDs, batch, log)
	topLevel := distributeEvidence(results, used)

	resp.Results = results
	resp.RAGContexts = topLevel
	log.Infof("reconciled %d results, %d top-level contexts from %d used chunks",
		len(results), len(topLevel), len(used))

	s.recordTurns(sessionID, q, resp)
	return resp, nil
}

// recordTurns appends the user's query and a textual digest of the response
// as one turn pair.
func (s *Service) recordTurns(sessionID, query string, resp *SearchResponse) {
	var parts []string
	if resp.Answer != "" {
		parts = append(parts, resp.Answer)
	}
	if resp.ContextualJustification != "" {
		parts = append(parts, resp.ContextualJustification)
	}
	if len(resp.FollowUpQuestions) > 0 {
		parts = append(parts, "Follow-up questions: "+strings.Join(resp.FollowUpQuestions, "; "))
	}
	if len(parts) == 0 {
		parts = append(parts, "Okay.")
	}

	s.sessions.Append(sessionID,
		Turn{Role: RoleUser, Parts: []string{query}},
		Turn{Role: RoleModel, Parts: []string{strings.TrimSpace(strings.Join(parts, " "))}},
	)
}
