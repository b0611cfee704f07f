// Package domain holds the shared types, error taxonomy, and validation
// rules used across the concierge engine.
package domain

import "encoding/json"

// Product is one catalog record. All fields are opaque strings as they
// appear in the catalog source; identity is by URL.
type Product struct {
	DisplayTitle  string `json:"displayTitle"`
	EmbeddingText string `json:"embeddingText"`
	URL           string `json:"url"`
	ImageURL      string `json:"imageUrl"`
	ProductType   string `json:"productType"`
	Discount      string `json:"discount"`
	Price         string `json:"price"`
	Variants      string `json:"variants"`
	CreateDate    string `json:"createDate"`
}

// EmbedText returns the text that is embedded for this product: the display
// title and the embedding text joined by a single space. The catalog must be
// embedded with exactly this composition so record vectors live in the same
// space as query vectors.
func (p Product) EmbedText() string {
	return p.DisplayTitle + " " + p.EmbeddingText
}

// Match pairs a product with its similarity score against a query.
// Scores are cosine similarities in [-1, 1].
type Match struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// FunctionCall is the structured capability selection returned by the
// reasoning model: a function name and its serialized argument object.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// RateTable maps currency codes to exchange rates relative to Base.
type RateTable struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Conversion is the result of converting an amount between two currencies.
type Conversion struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}
