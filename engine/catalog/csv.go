// Package catalog loads product records from a tabular CSV source. The file
// is read in full on every call; the engine holds no catalog state between
// requests.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shoply/concierge/engine/domain"
)

// Required header columns, in no particular order.
var requiredColumns = []string{
	"displayTitle", "embeddingText", "url", "imageUrl",
	"productType", "discount", "price", "variants", "createDate",
}

// CSVSource reads products from a CSV file with a fixed header.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

// NewCSVSource creates a catalog source backed by the CSV file at path.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{path: path, logger: logger}
}

// Load reads and parses the whole catalog. A missing or incomplete header is
// a ValidationError; rows with the wrong field count are skipped with a
// warning so one bad row cannot take down retrieval.
func (s *CSVSource) Load(ctx context.Context) ([]domain.Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", s.path, err)
	}
	defer f.Close()
	return parse(ctx, f, s.logger)
}

func parse(ctx context.Context, r io.Reader, logger *slog.Logger) ([]domain.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row length checked against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, domain.NewValidationError("header", "", domain.ErrMalformedCatalog)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, want := range requiredColumns {
		if _, ok := cols[want]; !ok {
			return nil, domain.NewValidationError("header", want, domain.ErrMalformedCatalog)
		}
	}

	var products []domain.Product
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		if len(row) < len(header) {
			logger.Warn("catalog: skipping short row", "line", line, "fields", len(row))
			continue
		}
		products = append(products, domain.Product{
			DisplayTitle:  row[cols["displayTitle"]],
			EmbeddingText: row[cols["embeddingText"]],
			URL:           row[cols["url"]],
			ImageURL:      row[cols["imageUrl"]],
			ProductType:   row[cols["productType"]],
			Discount:      row[cols["discount"]],
			Price:         row[cols["price"]],
			Variants:      row[cols["variants"]],
			CreateDate:    row[cols["createDate"]],
		})
	}
	return products, nil
}
