package search

import (
	"context"
	"errors"
	"fmt"
)

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerativeClient produces the model's raw text for one structured-output
// request. Implementations classify transport failures by returning a
// *GenerateError so the retry policy can act on the category.
type GenerativeClient interface {
	Generate(ctx context.Context, prompt string, history []Turn) (string, error)
}

// FailureCategory classifies why a generative attempt failed. The category
// decides both retryability and the canned message shown when attempts are
// exhausted.
type FailureCategory string

const (
	FailureParse      FailureCategory = "parse"      // output was not valid JSON
	FailureValidation FailureCategory = "validation" // JSON did not satisfy the schema
	FailureFormat     FailureCategory = "format"     // JSON object markers missing
	FailureRateLimit  FailureCategory = "rate_limit" // 429-equivalent
	FailureServer     FailureCategory = "server"     // 5xx-equivalent or timeout
	FailureAPI        FailureCategory = "api"        // other service error
	FailureBlocked    FailureCategory = "blocked"    // content policy rejection, terminal
	FailureStopped    FailureCategory = "stopped"    // generation stopped mid-way, terminal
	FailureOther      FailureCategory = "other"
)

// Terminal reports whether the category must not be retried.
func (c FailureCategory) Terminal() bool {
	return c == FailureBlocked || c == FailureStopped
}

type GenerateError struct {
	Category FailureCategory
	Err      error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("generate (%s): %v", e.Category, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

// CategoryOf extracts the failure category from an error chain, defaulting to
// FailureOther for unclassified errors.
func CategoryOf(err error) FailureCategory {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return FailureOther
}
