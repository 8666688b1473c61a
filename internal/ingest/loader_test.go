package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/search"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReviews(t *testing.T) {
	path := writeFile(t, "verified_reviews.txt",
		"Reviewer\tProduct\tRating\tReview\n"+
			"Ana\tBright C Serum\t★★★★\tMade my skin glow.\n"+
			"Bob\tNight Cream\t★★\tToo greasy for me.\n")

	docs, err := LoadReviews(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "review_txt_0", first.ID)
	assert.Equal(t, search.SourceReview, first.SourceType)
	assert.Equal(t, "Review for Bright C Serum by Ana (Rating: ★★★★): Made my skin glow.", first.Content)
	assert.Equal(t, "Ana", first.Metadata["reviewer"])
	assert.Equal(t, "Bright C Serum", first.Metadata[search.MetaProductName])
	assert.Equal(t, "★★★★", first.Metadata[search.MetaRating])
	assert.Equal(t, 2, first.Metadata["line_number"])

	assert.Equal(t, "review_txt_1", docs[1].ID)
}

func TestLoadReviews_ColumnOrderResolvedByName(t *testing.T) {
	path := writeFile(t, "verified_reviews.txt",
		"Review\tRating\tProduct\tReviewer\n"+
			"Lovely texture.\t★★★★★\tDay Lotion\tCleo\n")

	docs, err := LoadReviews(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Review for Day Lotion by Cleo (Rating: ★★★★★): Lovely texture.", docs[0].Content)
}

func TestLoadReviews_SkipsMalformedRows(t *testing.T) {
	path := writeFile(t, "verified_reviews.txt",
		"Reviewer\tProduct\tRating\tReview\n"+
			"Ana\tBright C Serum\t★★★★\tGood.\n"+
			"broken line without tabs\n"+
			"Bob\tNight Cream\n"+ // column count mismatch
			"\tNo Reviewer\t★★★\tMissing required value.\n"+
			"Dee\tToner\t★★★\tFine.\n")

	docs, err := LoadReviews(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, docs[0].Metadata["line_number"])
	assert.Equal(t, 6, docs[1].Metadata["line_number"])
}

func TestLoadReviews_MissingHeaderAbortsSource(t *testing.T) {
	path := writeFile(t, "verified_reviews.txt",
		"Reviewer\tItem\tRating\tReview\n"+
			"Ana\tSerum\t★★★★\tGood.\n")

	docs, err := LoadReviews(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Product")
	assert.Empty(t, docs)
}

func TestLoadReviews_EmptyFile(t *testing.T) {
	path := writeFile(t, "verified_reviews.txt", "")
	docs, err := LoadReviews(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadTickets(t *testing.T) {
	path := writeFile(t, "customer_tickets.txt",
		"Ticket ID\tCustomer Message\tSupport Response\n"+
			"T-100\tMy order never arrived.\tWe reshipped it today.\n")

	docs, err := LoadTickets(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "ticket_txt_0", doc.ID)
	assert.Equal(t, search.SourceCustomerTicket, doc.SourceType)
	assert.Equal(t, "Ticket ID: T-100\nCustomer Message: My order never arrived.\nSupport Response: We reshipped it today.", doc.Content)
	assert.Equal(t, "T-100", doc.Metadata["ticket_id"])
}

func TestLoadBrandInfo_PlainText(t *testing.T) {
	path := writeFile(t, "brand_info.txt", "  Our brand believes in gentle, effective skincare.  \n")

	docs, err := LoadBrandInfo(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "brand_info_main_content", doc.ID)
	assert.Equal(t, search.SourceBrandInfo, doc.SourceType)
	assert.Equal(t, "Our brand believes in gentle, effective skincare.", doc.Content)
	assert.Equal(t, path, doc.Metadata["source_file"])
}

func TestLoadBrandInfo_HTML(t *testing.T) {
	path := writeFile(t, "brand_info.html",
		"<html><head><style>body{}</style><script>evil()</script></head>"+
			"<body><h1>About us</h1><p>Cruelty-free since day one.</p></body></html>")

	docs, err := LoadBrandInfo(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "About us")
	assert.Contains(t, docs[0].Content, "Cruelty-free since day one.")
	assert.NotContains(t, docs[0].Content, "evil()")
	assert.NotContains(t, docs[0].Content, "body{}")
}

func TestLoadBrandInfo_EmptyFileYieldsNoDocuments(t *testing.T) {
	path := writeFile(t, "brand_info.txt", "   \n  ")
	docs, err := LoadBrandInfo(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadBrandInfo_MissingFile(t *testing.T) {
	_, err := LoadBrandInfo(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestProductDocuments(t *testing.T) {
	price := 29.9
	products := []catalog.Product{
		{
			ProductID:      "P001",
			ProductName:    "Bright C Serum",
			Category:       "Serum",
			Description:    "Brightening vitamin C serum.",
			PriceUSD:       &price,
			KeyIngredients: []string{"Vitamin C", "Hyaluronic Acid"},
			Tags:           []string{"brightening", "glow"},
		},
		{
			ProductID:   "P002",
			ProductName: "Plain Cleanser",
		},
	}

	docs := ProductDocuments(products)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "product_P001", first.ID)
	assert.Equal(t, search.SourceProductInfo, first.SourceType)
	assert.Equal(t,
		"Product Name: Bright C Serum\n"+
			"Category: Serum\n"+
			"Description: Brightening vitamin C serum.\n"+
			"Key Ingredients: Vitamin C, Hyaluronic Acid\n"+
			"Tags: brightening, glow",
		first.Content)
	assert.Equal(t, "P001", first.Metadata[search.MetaProductID])
	assert.Equal(t, "Bright C Serum", first.Metadata[search.MetaProductName])
	assert.Equal(t, 29.9, first.Metadata["price_usd"])

	second := docs[1]
	assert.Equal(t, "product_P002", second.ID)
	assert.Contains(t, second.Content, "Category: N/A")
	assert.NotContains(t, second.Content, "Key Ingredients:")
	_, hasPrice := second.Metadata["price_usd"]
	assert.False(t, hasPrice)
}

func TestProductDocuments_DeterministicIDs(t *testing.T) {
	products := []catalog.Product{{ProductID: "P009", ProductName: "Toner"}}
	first := ProductDocuments(products)
	second := ProductDocuments(products)
	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Content, second[0].Content)
}
