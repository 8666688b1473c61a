package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/search"
)

// ProductDocuments synthesizes one retrieval document per catalog product,
// concatenating the descriptive fields in fixed order so lexical and semantic
// matches land on them.
func ProductDocuments(products []catalog.Product) []ParsedDocument {
	docs := make([]ParsedDocument, 0, len(products))
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = "N/A"
		}

		parts := []string{
			"Product Name: " + p.ProductName,
			"Category: " + category,
			"Description: " + p.Description,
		}
		if len(p.KeyIngredients) > 0 {
			parts = append(parts, "Key Ingredients: "+strings.Join(p.KeyIngredients, ", "))
		}
		if len(p.Tags) > 0 {
			parts = append(parts, "Tags: "+strings.Join(p.Tags, ", "))
		}

		content := strings.Join(parts, "\n")
		if strings.TrimSpace(content) == "" {
			continue
		}

		metadata := map[string]any{
			search.MetaProductID:   p.ProductID,
			search.MetaProductName: p.ProductName,
			"category":             category,
		}
		if p.PriceUSD != nil {
			metadata["price_usd"] = *p.PriceUSD
		}

		docs = append(docs, ParsedDocument{
			ID:         "product_" + p.ProductID,
			SourceType: search.SourceProductInfo,
			Content:    content,
			Metadata:   metadata,
		})
	}
	return docs
}

// LoadBrandInfo reads the brand information source as a single whole-file
// document. Plain text and markdown are taken verbatim; .html and .pdf
// sources are reduced to their visible text first.
func LoadBrandInfo(path string) ([]ParsedDocument, error) {
	var content string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			return nil, fmt.Errorf("read brand info pdf %s: %w", path, err)
		}
		content = text
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read brand info %s: %w", path, err)
		}
		content = extractHTMLText(string(data))
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read brand info %s: %w", path, err)
		}
		content = string(data)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	return []ParsedDocument{{
		ID:         "brand_info_main_content",
		SourceType: search.SourceBrandInfo,
		Content:    content,
		Metadata:   map[string]any{"source_file": path},
	}}, nil
}

// LoadReviews parses the tab-delimited verified reviews source. Required
// columns are resolved by header name; a structurally broken row fails only
// that row, a missing header fails the whole source.
func LoadReviews(path string) ([]ParsedDocument, error) {
	records, err := readTabRecords(path, []string{"Reviewer", "Product", "Rating", "Review"})
	if err != nil {
		return nil, err
	}

	docs := make([]ParsedDocument, 0, len(records))
	for _, rec := range records {
		reviewer := rec.fields["Reviewer"]
		productName := rec.fields["Product"]
		rating := rec.fields["Rating"]
		reviewText := rec.fields["Review"]

		docs = append(docs, ParsedDocument{
			ID:         fmt.Sprintf("review_txt_%d", len(docs)),
			SourceType: search.SourceReview,
			Content:    fmt.Sprintf("Review for %s by %s (Rating: %s): %s", productName, reviewer, rating, reviewText),
			Metadata: map[string]any{
				"source_file":          path,
				"reviewer":             reviewer,
				search.MetaProductName: productName,
				search.MetaRating:      rating,
				"line_number":          rec.line,
			},
		})
	}
	return docs, nil
}

// LoadTickets parses the tab-delimited customer tickets source with the same
// failure policy as LoadReviews.
func LoadTickets(path string) ([]ParsedDocument, error) {
	records, err := readTabRecords(path, []string{"Ticket ID", "Customer Message", "Support Response"})
	if err != nil {
		return nil, err
	}

	docs := make([]ParsedDocument, 0, len(records))
	for _, rec := range records {
		ticketID := rec.fields["Ticket ID"]
		message := rec.fields["Customer Message"]
		response := rec.fields["Support Response"]

		docs = append(docs, ParsedDocument{
			ID:         fmt.Sprintf("ticket_txt_%d", len(docs)),
			SourceType: search.SourceCustomerTicket,
			Content:    fmt.Sprintf("Ticket ID: %s\nCustomer Message: %s\nSupport Response: %s", ticketID, message, response),
			Metadata: map[string]any{
				"source_file": path,
				"ticket_id":   ticketID,
				"line_number": rec.line,
			},
		})
	}
	return docs, nil
}

type tabRecord struct {
	line   int
	fields map[string]string
}

// readTabRecords reads a header-led tab-delimited file, resolving the
// required columns by name. Rows with the wrong column count or an empty
// required value are skipped with a warning.
func readTabRecords(path string, required []string) ([]tabRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log := logrus.WithField("component", "ingest")

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		log.Warnf("source file is empty: %s", path)
		return nil, nil
	}

	headers := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q, found %v", path, name, headers)
		}
	}

	var records []tabRecord
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		parts := strings.Split(text, "\t")
		if len(parts) != len(headers) {
			log.Warnf("skipping malformed line (column count mismatch) in %s at line %d", path, line)
			continue
		}

		fields := make(map[string]string, len(required))
		ok := true
		for _, name := range required {
			v := strings.TrimSpace(parts[index[name]])
			if v == "" {
				log.Warnf("skipping line with empty %q in %s at line %d", name, path, line)
				ok = false
				break
			}
			fields[name] = v
		}
		if !ok {
			continue
		}

		records = append(records, tabRecord{line: line, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return records, nil
}
