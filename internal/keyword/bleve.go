// Package keyword provides Bleve implementation of NameIndex.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/fastcos/internal/models"
)

const deleteBatchSize = 1000

// BleveIndex implements NameIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

type nameDoc struct {
	Segment    string `json:"segment"`
	DocID      int    `json:"doc_id"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory and re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an in-memory index, for tests and the CLI.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so names match on exact words.
	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", nameMapping)

	segmentMapping := bleve.NewTextFieldMapping()
	segmentMapping.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("segment", segmentMapping)

	externalMapping := bleve.NewTextFieldMapping()
	externalMapping.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("external_id", externalMapping)

	docMapping.AddFieldMappingsAt("doc_id", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

func docKey(segment string, docID int) string {
	return segment + "/" + strconv.Itoa(docID)
}

func parseDocKey(key string) (string, int, error) {
	i := strings.LastIndexByte(key, '/')
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid document key %q", key)
	}
	docID, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid document key %q: %w", key, err)
	}
	return key[:i], docID, nil
}

func toNameDoc(doc *models.Document) nameDoc {
	return nameDoc{
		Segment:    doc.Segment,
		DocID:      doc.DocID,
		Name:       doc.Name,
		ExternalID: doc.ID,
	}
}

// Index indexes the name of a document.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	return b.index.Index(docKey(doc.Segment, doc.DocID), toNameDoc(doc))
}

// IndexBatch indexes the names of docs in one batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, docs []*models.Document) error {
	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(docKey(doc.Segment, doc.DocID), toNameDoc(doc)); err != nil {
			return fmt.Errorf("failed to index %s/%d: %w", doc.Segment, doc.DocID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}
	return nil
}

// Search runs a match query over names and returns up to limit hits by descending score.
// An empty query matches every document with score 1.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	fuzziness := 0
	if opts != nil {
		fuzziness = opts.Fuzziness
	}

	var q blevequery.Query
	matchAll := strings.TrimSpace(query) == ""
	switch {
	case matchAll:
		q = bleve.NewMatchAllQuery()
	case fuzziness > 0:
		q = buildFuzzyQuery(query, fuzziness)
	default:
		mq := bleve.NewMatchQuery(query)
		mq.SetField("name")
		q = mq
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	if matchAll {
		req.SortBy([]string{"segment", "doc_id"})
	}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		segment, docID, err := parseDocKey(hit.ID)
		if err != nil {
			return nil, err
		}
		score := hit.Score
		if matchAll {
			score = 1
		}
		out = append(out, &Hit{Segment: segment, DocID: docID, Score: score})
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries over the name field, one per term.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField("name")
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DeleteSegment removes every document of segment from the index.
func (b *BleveIndex) DeleteSegment(ctx context.Context, segment string) error {
	tq := bleve.NewTermQuery(segment)
	tq.SetField("segment")
	for {
		req := bleve.NewSearchRequest(tq)
		req.Size = deleteBatchSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("Bleve search failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete segment %s: %w", segment, err)
		}
	}
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
