// Package intent interprets the reasoning model's function-calling output
// and turns it into a concrete dispatch decision. It performs no I/O.
package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shoply/concierge/engine/domain"
)

// Function names the reasoning model is allowed to select.
const (
	FuncSearchProducts  = "searchProducts"
	FuncConvertCurrency = "convertCurrency"
)

// Kind tags the chosen capability.
type Kind string

const (
	KindSearchProducts  Kind = "search_products"
	KindConvertCurrency Kind = "convert_currency"
	KindDirectAnswer    Kind = "direct_answer"
)

// Decision is the routed outcome of one reasoning response. Exactly the
// fields for its Kind are set.
type Decision struct {
	Kind Kind

	// KindSearchProducts
	Query string

	// KindConvertCurrency; codes are canonical upper-case.
	Amount float64
	From   string
	To     string

	// KindDirectAnswer
	Answer string
}

type searchArgs struct {
	Query *string `json:"query"`
}

type convertArgs struct {
	Amount       *float64 `json:"amount"`
	FromCurrency *string  `json:"fromCurrency"`
	ToCurrency   *string  `json:"toCurrency"`
}

// Route maps a function call (or its absence) to a Decision.
//
// A nil call yields DirectAnswer carrying messageText. A recognized function
// with well-typed arguments yields the matching decision. Unparseable or
// mistyped arguments are a ValidationError; an undeclared function name is
// ErrUnknownCapability. There is no silent fallback.
func Route(call *domain.FunctionCall, messageText string) (Decision, error) {
	if call == nil {
		return Decision{Kind: KindDirectAnswer, Answer: messageText}, nil
	}

	switch call.Name {
	case FuncSearchProducts:
		var args searchArgs
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return Decision{}, domain.NewValidationError("arguments", string(call.Arguments), err)
		}
		if args.Query == nil {
			return Decision{}, domain.NewValidationError("query", "", domain.ErrMissingArgument)
		}
		if strings.TrimSpace(*args.Query) == "" {
			return Decision{}, domain.NewValidationError("query", "", domain.ErrEmptyQuery)
		}
		return Decision{Kind: KindSearchProducts, Query: *args.Query}, nil

	case FuncConvertCurrency:
		var args convertArgs
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return Decision{}, domain.NewValidationError("arguments", string(call.Arguments), err)
		}
		if args.Amount == nil {
			return Decision{}, domain.NewValidationError("amount", "", domain.ErrMissingArgument)
		}
		if args.FromCurrency == nil {
			return Decision{}, domain.NewValidationError("fromCurrency", "", domain.ErrMissingArgument)
		}
		if args.ToCurrency == nil {
			return Decision{}, domain.NewValidationError("toCurrency", "", domain.ErrMissingArgument)
		}
		if err := domain.ValidateCurrencyCode(*args.FromCurrency); err != nil {
			return Decision{}, err
		}
		if err := domain.ValidateCurrencyCode(*args.ToCurrency); err != nil {
			return Decision{}, err
		}
		return Decision{
			Kind:   KindConvertCurrency,
			Amount: *args.Amount,
			From:   domain.NormalizeCurrencyCode(*args.FromCurrency),
			To:     domain.NormalizeCurrencyCode(*args.ToCurrency),
		}, nil

	default:
		return Decision{}, fmt.Errorf("intent: function %q: %w", call.Name, domain.ErrUnknownCapability)
	}
}
