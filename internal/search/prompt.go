package search

import (
	"fmt"
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

// Preview length for candidate chunks rendered into the prompt. Full texts
// are re-attached after generation via hydration, so the model only needs
// enough to judge relevance.
const contextPreviewChars = 300

const responseSchema = `{
  "session_id": "string (echo the session id from the input if one was provided)",
  "results": [
    {
      "product": {
        "product_id": "string (the product's unique id, taken from the metadata of a retrieved context)",
        "product_name": "string (product name)",
        "category": "string (optional)",
        "description": "string (optional, may be summarized)",
        "price_usd": "number (optional)",
        "currency_code": "string (optional)",
        "margin_percentage": "number (optional, from context if present)",
        "key_ingredients": ["string (optional)"],
        "tags": ["string (optional)"],
        "image_url": "string (optional)"
      },
      "justification": "string (optional, why this specific product is recommended)",
      "supporting_review_chunk_ids": ["string (chunk ids of reviews from the contexts that support THIS product; only substantive, relevant reviews whose source is 'review')"]
    }
  ],
  "used_rag_context_ids": ["string (chunk ids of ALL contexts you actually used anywhere in this response)"],
  "follow_up_questions": ["string (optional, 1-2 contextual follow-up questions)"],
  "answer": "string (optional, a direct synthesized answer for non-recommendation questions; null when recommending products)",
  "contextual_justification": "string (a brief, friendly, user-facing explanation of why these results or questions are shown; never mention internal ranking, profitability or margins)"
}`

// buildPrompt renders the full structured-output instruction for one request:
// the user query, the retrieved candidates and the JSON contract the model
// must honor. Conversation history travels separately as chat turns.
func buildPrompt(query string, retrieved []RetrievedChunk) string {
	var b strings.Builder

	b.WriteString("You are a helpful and friendly AI personal shopper for an online skincare store.\n")
	b.WriteString("Understand the user's needs and either recommend relevant products, answer their question, ")
	b.WriteString("or ask clarifying questions when the query is vague. Use the conversation history, if any, ")
	b.WriteString("to interpret the current query: a refinement like \"for oily skin\" after \"serums\" means \"serums for oily skin\".\n\n")

	fmt.Fprintf(&b, "Current user's query: %q\n", query)
	fmt.Fprintf(&b, "Respond in %s.\n\n", answerLanguage(query))

	b.WriteString("Relevant information retrieved from the knowledge base for the CURRENT query:\n---\n")
	b.WriteString(formatContexts(retrieved))
	b.WriteString("\n---\n")
	b.WriteString("Context sources: product_info is authoritative product data (metadata carries product_id); ")
	b.WriteString("review is customer feedback (metadata carries product_name and rating); ")
	b.WriteString("customer_ticket is a support interaction; brand_info is general brand information.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("1. Recommend up to 5 products only when you can identify each product_id from the metadata of a retrieved context. Never invent products or ids.\n")
	b.WriteString("2. For every recommended product, list the chunk ids of clearly positive, directly relevant reviews in supporting_review_chunk_ids, and give a short justification.\n")
	b.WriteString("3. If the query is vague, return no results and ask 1-2 clarifying follow_up_questions instead.\n")
	b.WriteString("4. If the query is a question answerable from the contexts, put a concise synthesized answer in the answer field; do not paste raw context text.\n")
	b.WriteString("5. If nothing relevant was retrieved, say so politely in the answer field.\n")
	b.WriteString("6. List every chunk id you used anywhere in used_rag_context_ids.\n")
	b.WriteString("7. contextual_justification must always be present and user-facing; never mention ranking logic, profitability or margin percentages anywhere in user-visible text.\n\n")

	b.WriteString("Respond ONLY with a single valid JSON object matching this structure, with no text before or after it:\n```json\n")
	b.WriteString(responseSchema)
	b.WriteString("\n```\n")

	return b.String()
}

func formatContexts(retrieved []RetrievedChunk) string {
	if len(retrieved) == 0 {
		return "No specific context found from knowledge base."
	}

	parts := make([]string, 0, len(retrieved))
	for i, c := range retrieved {
		parts = append(parts, fmt.Sprintf(
			"Context %d (Chunk ID: %s, Source: %s):\n%s\nMetadata: %v",
			i+1, c.ID, c.SourceType(), previewText(c.TextChunk), c.Metadata,
		))
	}
	return strings.Join(parts, "\n\n")
}

func previewText(s string) string {
	runes := []rune(s)
	if len(runes) <= contextPreviewChars {
		return s
	}
	return string(runes[:contextPreviewChars-3]) + "..."
}

// answerLanguage maps the detected query language to the language the model
// should answer in, defaulting to English.
func answerLanguage(query string) string {
	info := wl.Detect(query)
	switch strings.ToLower(wl.LangToString(info.Lang)) {
	case "por":
		return "Brazilian Portuguese"
	case "spa":
		return "Spanish"
	case "fra":
		return "French"
	case "deu":
		return "German"
	default:
		return "English"
	}
}
