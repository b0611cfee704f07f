// Package rank implements cosine-similarity scoring and top-K ranking over
// embedding vectors. It is pure: no I/O, no state.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/shoply/concierge/engine/domain"
)

// Candidate is one vector to be ranked, identified by its position in the
// caller's record set.
type Candidate struct {
	Index  int
	Vector []float64
}

// Score is a ranked candidate: its original index and cosine similarity.
type Score struct {
	Index int
	Value float64
}

// Cosine returns the cosine similarity dot(a,b) / (|a|*|b|).
// Vectors of unequal length fail with ErrDimensionMismatch; a vector with
// zero magnitude fails with ErrDegenerateVector rather than producing NaN.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("rank: len(a)=%d len(b)=%d: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("rank: %w", domain.ErrDegenerateVector)
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// TopK scores every candidate against query with a linear scan, sorts
// descending by score with a stable tie-break on input order, and returns
// the first min(k, len(candidates)) entries.
func TopK(query []float64, candidates []Candidate, k int) ([]Score, error) {
	if k < 0 {
		return nil, domain.NewValidationError("topK", fmt.Sprintf("%d", k), domain.ErrNegativeTopK)
	}

	scores := make([]Score, len(candidates))
	for i, c := range candidates {
		s, err := Cosine(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("rank: candidate %d: %w", c.Index, err)
		}
		scores[i] = Score{Index: c.Index, Value: s}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})

	if k < len(scores) {
		scores = scores[:k]
	}
	return scores, nil
}
