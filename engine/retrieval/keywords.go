package retrieval

import (
	"strings"

	"github.com/shoply/concierge/engine/domain"
)

// Common English words that carry no product signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "can": true, "to": true,
	"of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "into": true,
	"what": true, "where": true, "when": true, "how": true, "which": true,
	"this": true, "that": true, "these": true, "those": true, "i": true,
	"me": true, "my": true, "it": true, "its": true, "you": true,
	"your": true, "and": true,
	"but": true, "or": true, "not": true, "find": true, "show": true,
	"want": true, "need": true, "looking": true,
}

// extractKeywords pulls the content-bearing words out of a query.
func extractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	var keywords []string
	for _, w := range words {
		w = strings.Trim(w, "?.,!;:'\"")
		if len(w) > 2 && !stopWords[w] {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// filterByKeywords keeps products whose embedding text contains at least one
// query keyword. With no usable keywords the full set passes through.
func filterByKeywords(query string, products []domain.Product) []domain.Product {
	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return products
	}

	var out []domain.Product
	for _, p := range products {
		text := strings.ToLower(p.EmbedText())
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
