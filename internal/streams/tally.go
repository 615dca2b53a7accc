package streams

import (
	"sort"
	"sync"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

// ProductTally keeps running overall-sentiment counts per product.
type ProductTally struct {
	mu        sync.Mutex
	byProduct map[string]models.SentimentStats
}

func NewProductTally() *ProductTally {
	return &ProductTally{byProduct: make(map[string]models.SentimentStats)}
}

// Add counts one review. Reviews without a product are tallied under "".
func (t *ProductTally) Add(review models.AnalyzedReview) {
	one := absa.SentimentStats([]models.ReviewResult{review.ReviewResult})

	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.byProduct[review.ProductID]
	s.Positive += one.Positive
	s.Neutral += one.Neutral
	s.Negative += one.Negative
	s.Total += one.Total
	t.byProduct[review.ProductID] = s
}

// Products lists tallied products in name order.
func (t *ProductTally) Products() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.byProduct))
	for p := range t.byProduct {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (t *ProductTally) Stats(productID string) models.SentimentStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byProduct[productID]
}
