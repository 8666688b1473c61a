package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxGenerateAttempts = 3

// Fixed inter-attempt delay; a var so tests can shrink it.
var generateRetryDelay = 2 * time.Second

// llmEnvelope is the model's structured output, treated as untrusted input
// throughout. Advisory product fields beyond id and name are deliberately not
// decoded: the catalog record replaces the whole payload anyway.
type llmEnvelope struct {
	SessionID               string          `json:"session_id"`
	Results                 []llmResult     `json:"results"`
	UsedRAGContextIDs       []string        `json:"used_rag_context_ids"`
	FollowUpQuestions       flexibleStrings `json:"follow_up_questions"`
	Answer                  string          `json:"answer"`
	ContextualJustification string          `json:"contextual_justification"`
}

type llmResult struct {
	Product                  *llmProduct `json:"product"`
	Justification            string      `json:"justification"`
	SupportingReviewChunkIDs []string    `json:"supporting_review_chunk_ids"`
}

type llmProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}

// flexibleStrings tolerates a model returning a bare string where a string
// list was asked for.
type flexibleStrings []string

func (f *flexibleStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = []string{single}
		} else {
			*f = nil
		}
		return nil
	}
	return fmt.Errorf("expected string or string list, got %s", string(data))
}

// parseEnvelope extracts the brace-delimited JSON object from the raw model
// text and validates the schema's hard requirements.
func parseEnvelope(raw string) (*llmEnvelope, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &GenerateError{
			Category: FailureFormat,
			Err:      fmt.Errorf("output not in expected JSON format (markers not found)"),
		}
	}

	var env llmEnvelope
	if err := json.Unmarshal([]byte(raw[start:end+1]), &env); err != nil {
		return nil, &GenerateError{Category: FailureParse, Err: err}
	}

	for i, res := range env.Results {
		if res.Product == nil || res.Product.ProductID == "" || res.Product.ProductName == "" {
			return nil, &GenerateError{
				Category: FailureValidation,
				Err:      fmt.Errorf("result %d missing required product id or name", i),
			}
		}
	}

	return &env, nil
}

// generateWithRetry drives the attempt loop against the generative model.
// Retryable failures (parse, validation, format, rate-limit, server, api,
// other) are retried up to maxGenerateAttempts with a fixed delay; terminal
// categories (blocked, stopped) degrade immediately. It returns either a
// parsed envelope or a degraded response, never both.
func generateWithRetry(ctx context.Context, client GenerativeClient, prompt string, history []Turn, log *logrus.Entry) (*llmEnvelope, *SearchResponse) {
	lastCategory := FailureOther

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		log.Infof("generative call attempt %d of %d", attempt, maxGenerateAttempts)

		raw, err := client.Generate(ctx, prompt, history)
		if err == nil {
			env, perr := parseEnvelope(raw)
			if perr == nil {
				return env, nil
			}
			err = perr
		}

		category := CategoryOf(err)
		if category.Terminal() {
			log.Errorf("generative call failed terminally (%s): %v", category, err)
			return nil, degradedResponse(category)
		}

		lastCategory = category
		log.Warnf("attempt %d failed (%s): %v", attempt, category, err)

		if attempt < maxGenerateAttempts {
			select {
			case <-time.After(generateRetryDelay):
			case <-ctx.Done():
				log.Warnf("generative retry loop canceled: %v", ctx.Err())
				return nil, degradedResponse(lastCategory)
			}
		}
	}

	log.Errorf("all %d generative attempts failed, last category: %s", maxGenerateAttempts, lastCategory)
	return nil, degradedResponse(lastCategory)
}

// degradedResponse builds the canned user-facing response for a failure
// category. Always a well-formed SearchResponse, never a raw error.
func degradedResponse(category FailureCategory) *SearchResponse {
	answer := "Sorry, I'm having trouble connecting to my brain right now. Please try again later."
	justification := "Assistant call failed after multiple attempts."

	switch category {
	case FailureParse:
		answer = "Sorry, I had trouble processing that. Could you try rephrasing?"
		justification = "Assistant response parsing error after multiple attempts."
	case FailureValidation:
		answer = "Sorry, I encountered an issue with the response structure. Please try again."
		justification = "Assistant response validation error after multiple attempts."
	case FailureFormat:
		answer = "Sorry, I couldn't generate a structured response. Please try again."
		justification = "Assistant output format error after multiple attempts."
	case FailureRateLimit:
		answer = "I'm a bit overwhelmed at the moment. Please try again in a few moments."
		justification = "Rate limit reached. Please try again later."
	case FailureServer:
		answer = "There seems to be a temporary issue with the AI service. Please try again shortly."
		justification = "AI service unavailable or server error."
	case FailureAPI:
		answer = "An issue occurred while communicating with the AI service. Please try again."
		justification = "AI service communication error."
	case FailureBlocked:
		answer = "The request could not be processed due to content policy."
		justification = "Content policy violation."
	case FailureStopped:
		answer = "The response generation was stopped. This might be due to safety settings or other reasons."
		justification = "Response generation incomplete."
	}

	return &SearchResponse{
		Results:                 []ProductResult{},
		RAGContexts:             []DocumentChunk{},
		FollowUpQuestions:       []string{},
		Answer:                  answer,
		ContextualJustification: justification,
	}
}
