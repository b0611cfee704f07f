package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  error
	}{
		{"ok", "find me a blue jacket", nil},
		{"empty", "", ErrEmptyQuery},
		{"whitespace", " \t\n ", ErrEmptyQuery},
		{"too long", strings.Repeat("a", 2001), ErrQueryTooLong},
		{"at limit", strings.Repeat("a", 2000), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(tc.query)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestValidateCurrencyCode(t *testing.T) {
	for _, code := range []string{"USD", "eur", "Gbp"} {
		if err := ValidateCurrencyCode(code); err != nil {
			t.Errorf("%q: unexpected error: %v", code, err)
		}
	}
	for _, code := range []string{"", "US", "USDX", "U$D", "123"} {
		if err := ValidateCurrencyCode(code); !errors.Is(err, ErrInvalidCurrency) {
			t.Errorf("%q: got %v, want ErrInvalidCurrency", code, err)
		}
	}
}

func TestNormalizeCurrencyCode(t *testing.T) {
	if got := NormalizeCurrencyCode("usd"); got != "USD" {
		t.Errorf("got %q, want USD", got)
	}
}

func TestCallerFault(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", NewValidationError("query", "", ErrEmptyQuery), true},
		{"unknown capability", ErrUnknownCapability, true},
		{"upstream", NewUpstreamError("rates", errors.New("boom")), false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CallerFault(tc.err); got != tc.want {
				t.Errorf("CallerFault(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"validation", NewValidationError("topK", "-1", ErrNegativeTopK), "validation"},
		{"unknown capability", ErrUnknownCapability, "unknown_capability"},
		{"not found", ErrCurrencyNotFound, "not_found"},
		{"dims", ErrDimensionMismatch, "dimension_mismatch"},
		{"degenerate", ErrDegenerateVector, "degenerate_vector"},
		{"upstream", NewUpstreamError("rates", errors.New("boom")), "upstream"},
		{"internal", errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorKind(tc.err); got != tc.want {
				t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("query", "", ErrEmptyQuery)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Error("ValidationError does not unwrap to its sentinel")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewUpstreamError("rates", inner)
	if !errors.Is(err, inner) {
		t.Error("UpstreamError does not unwrap to the wrapped error")
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Service != "rates" {
		t.Errorf("got %v", err)
	}
}

func TestProductEmbedText(t *testing.T) {
	p := Product{DisplayTitle: "Blue Jacket", EmbeddingText: "warm blue winter jacket"}
	if got := p.EmbedText(); got != "Blue Jacket warm blue winter jacket" {
		t.Errorf("EmbedText() = %q", got)
	}
}
