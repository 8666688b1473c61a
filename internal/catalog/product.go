package catalog

// Product is the authoritative catalog record for a single SKU. Between
// reloads it is immutable; any product-identifying data returned to a user
// must come from here, never from generative output.
type Product struct {
	ProductID        string   `json:"product_id"`
	ProductName      string   `json:"product_name"`
	Category         string   `json:"category,omitempty"`
	Description      string   `json:"description,omitempty"`
	PriceUSD         *float64 `json:"price_usd,omitempty"`
	CurrencyCode     string   `json:"currency_code,omitempty"`
	MarginPercentage *float64 `json:"margin_percentage,omitempty"`
	KeyIngredients   []string `json:"key_ingredients,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
}
