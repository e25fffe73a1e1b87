// Package keyword provides the document name index used to select search candidates.
package keyword

import (
	"context"

	"github.com/hyperjump/fastcos/internal/models"
)

// SearchOptions optional parameters for name search. Nil means use defaults.
type SearchOptions struct {
	// Fuzziness is the maximum Levenshtein edit distance per term (1 or 2).
	// Zero disables fuzzy matching.
	Fuzziness int
}

// NameIndex defines name search operations. Documents are addressed by segment and doc id.
type NameIndex interface {
	Index(ctx context.Context, doc *models.Document) error
	// IndexBatch indexes docs in one batch.
	IndexBatch(ctx context.Context, docs []*models.Document) error
	// Search returns up to limit hits for query. An empty query matches every document.
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DeleteSegment(ctx context.Context, segment string) error
	Close() error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
}

// Hit is a single name search hit.
type Hit struct {
	Segment string
	DocID   int
	Score   float64
}
