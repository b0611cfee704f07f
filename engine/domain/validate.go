package domain

import (
	"strings"
	"unicode/utf8"
)

const maxQueryLength = 2000

// ValidateQuery checks a raw inquiry before it is sent anywhere upstream.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return NewValidationError("query", q, ErrEmptyQuery)
	}
	if utf8.RuneCountInString(q) > maxQueryLength {
		return NewValidationError("query", q[:32]+"...", ErrQueryTooLong)
	}
	return nil
}

// ValidateCurrencyCode checks that code looks like an ISO 4217 code:
// exactly three ASCII letters.
func ValidateCurrencyCode(code string) error {
	if len(code) != 3 {
		return NewValidationError("currency", code, ErrInvalidCurrency)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return NewValidationError("currency", code, ErrInvalidCurrency)
		}
	}
	return nil
}

// NormalizeCurrencyCode upper-cases a validated code for rate-table lookup.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(code)
}
