package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogHeader = "product_id,name,category,description,price (USD),margin (%),top_ingredients,tags,image_url\n"

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skincare_catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProductsCSV(t *testing.T) {
	path := writeCatalog(t, catalogHeader+
		`P001,Bright C Serum,Serum,"Brightening, fast-absorbing serum",29.90,55,Vitamin C; Hyaluronic Acid,brightening|glow,http://img/p001.jpg`+"\n"+
		"P002,Plain Cleanser,Cleanser,Simple daily cleanser,9.50,,,,\n")

	products, err := LoadProductsCSV(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, "P001", p.ProductID)
	assert.Equal(t, "Bright C Serum", p.ProductName)
	assert.Equal(t, "Serum", p.Category)
	assert.Equal(t, "Brightening, fast-absorbing serum", p.Description)
	require.NotNil(t, p.PriceUSD)
	assert.Equal(t, 29.90, *p.PriceUSD)
	require.NotNil(t, p.MarginPercentage)
	assert.Equal(t, 55.0, *p.MarginPercentage)
	assert.Equal(t, []string{"Vitamin C", "Hyaluronic Acid"}, p.KeyIngredients)
	assert.Equal(t, []string{"brightening", "glow"}, p.Tags)
	assert.Equal(t, "USD", p.CurrencyCode)

	q := products[1]
	assert.Nil(t, q.MarginPercentage)
	assert.Empty(t, q.KeyIngredients)
	assert.Empty(t, q.Tags)
}

func TestLoadProductsCSV_SkipsMalformedRows(t *testing.T) {
	path := writeCatalog(t, catalogHeader+
		"P001,Bright C Serum,Serum,desc,29.90,55,,,\n"+
		",Missing ID,Serum,desc,10,5,,,\n"+
		"P003,Bad Price,Serum,desc,not-a-number,5,,,\n"+
		"P004,Short Row\n"+
		"P005,Fine Toner,Toner,desc,12.00,,,,\n")

	products, err := LoadProductsCSV(path)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "P001", products[0].ProductID)
	assert.Equal(t, "P005", products[1].ProductID)
}

func TestLoadProductsCSV_MissingRequiredHeaderAborts(t *testing.T) {
	path := writeCatalog(t, "sku,name,category\nP001,Serum,Serum\n")

	products, err := LoadProductsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product_id")
	assert.Empty(t, products)
}

func TestLoadProductsCSV_MissingFile(t *testing.T) {
	_, err := LoadProductsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
