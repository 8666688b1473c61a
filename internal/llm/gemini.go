package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/conversational-store/backend/internal/search"
)

const (
	embeddingModel = "models/text-embedding-004"
	embedDim       = search.EmbeddingDim
	embedBatchSize = 100
)

const systemInstruction = "You are a helpful and friendly AI personal shopper for an online skincare store. " +
	"Your goal is to understand the user's needs and provide relevant product recommendations, " +
	"answer questions about products or skincare, or ask clarifying questions if the user's query is vague. " +
	"Maintain a conversational tone and refer to previous interactions if relevant."

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c, model: model}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		embeddingModel,
		genai.Text(clean),
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(embedDim)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return embeddingValues(resp.Embeddings[0])
}

// EmbedBatch embeds texts in request-sized batches, preserving input order.
func (g *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			clean := normalizeWhitespace(t)
			if clean == "" {
				clean = " "
			}
			contents = append(contents, genai.NewContentFromText(clean, genai.RoleUser))
		}

		resp, err := g.client.Models.EmbedContent(
			ctx,
			embeddingModel,
			contents,
			&genai.EmbedContentConfig{
				OutputDimensionality: genai.Ptr(int32(embedDim)),
			},
		)
		if err != nil {
			return nil, fmt.Errorf("gemini embed batch [%d:%d]: %w", start, end, err)
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("gemini embed batch [%d:%d]: got %d embeddings for %d texts", start, end, len(resp.Embeddings), len(contents))
		}

		for _, emb := range resp.Embeddings {
			values, err := embeddingValues(emb)
			if err != nil {
				return nil, err
			}
			out = append(out, values)
		}
	}

	return out, nil
}

func embeddingValues(emb *genai.ContentEmbedding) ([]float32, error) {
	if emb == nil || len(emb.Values) != embedDim {
		got := 0
		if emb != nil {
			got = len(emb.Values)
		}
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", got, embedDim)
	}
	out := make([]float32, embedDim)
	copy(out, emb.Values)
	return out, nil
}

// Generate sends one structured-output request on a chat seeded with the
// session history and returns the raw model text. Failures come back as
// *search.GenerateError so the caller's retry policy can act on the category.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, history []search.Turn) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemInstruction)[0],
	}

	chat, err := g.client.Chats.Create(ctx, g.model, cfg, historyContents(history))
	if err != nil {
		return "", classify(fmt.Errorf("create chat: %w", err))
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", &search.GenerateError{Category: search.FailureOther, Err: fmt.Errorf("empty response from gemini")}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &search.GenerateError{
			Category: search.FailureBlocked,
			Err:      fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}
	if len(resp.Candidates) > 0 {
		if fr := resp.Candidates[0].FinishReason; fr != "" && fr != genai.FinishReasonStop && fr != genai.FinishReasonMaxTokens {
			return "", &search.GenerateError{
				Category: search.FailureStopped,
				Err:      fmt.Errorf("generation stopped: %s", fr),
			}
		}
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", &search.GenerateError{Category: search.FailureOther, Err: fmt.Errorf("model returned empty text")}
	}
	return txt, nil
}

func historyContents(history []search.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == search.RoleModel {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			parts = append(parts, &genai.Part{Text: p})
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

// classify maps transport errors onto the reconciler's failure taxonomy.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &search.GenerateError{Category: search.FailureRateLimit, Err: err}
		case apiErr.Code >= 500, apiErr.Code == 408:
			return &search.GenerateError{Category: search.FailureServer, Err: err}
		default:
			return &search.GenerateError{Category: search.FailureAPI, Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &search.GenerateError{Category: search.FailureServer, Err: err}
	}
	return &search.GenerateError{Category: search.FailureOther, Err: err}
}

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ search.EmbeddingsClient = (*GeminiClient)(nil)
var _ search.GenerativeClient = (*GeminiClient)(nil)
