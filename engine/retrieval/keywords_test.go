package retrieval

import (
	"reflect"
	"testing"

	"github.com/shoply/concierge/engine/domain"
)

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"find me a blue jacket", []string{"blue", "jacket"}},
		{"What is the price of running shoes?", []string{"price", "running", "shoes"}},
		{"Do you have it?", []string{"have"}},
		{"a an the", nil},
		{"", nil},
	}
	for _, tc := range cases {
		if got := extractKeywords(tc.query); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("extractKeywords(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestFilterByKeywords(t *testing.T) {
	products := []domain.Product{
		{DisplayTitle: "Blue Jacket", EmbeddingText: "warm blue winter jacket"},
		{DisplayTitle: "Red Shoes", EmbeddingText: "red running shoes"},
		{DisplayTitle: "Coffee Mug", EmbeddingText: "ceramic mug"},
	}

	got := filterByKeywords("blue jacket", products)
	if len(got) != 1 || got[0].DisplayTitle != "Blue Jacket" {
		t.Errorf("got %+v", got)
	}

	// Stop-word-only queries disable the filter entirely.
	if got := filterByKeywords("what do you want", products); len(got) != len(products) {
		t.Errorf("got %d products, want all %d", len(got), len(products))
	}
}
