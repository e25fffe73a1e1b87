package search

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/docvalues"
	"github.com/hyperjump/fastcos/internal/models"
	"github.com/hyperjump/fastcos/internal/scoring"
)

// ScoreDocuments scores docs as one in-memory segment without storage. Doc ids
// follow input order. Documents with a non-finite score are left out.
func ScoreDocuments(factory *scoring.Factory, docs []*models.DocumentInput, c codec.Codec, explain bool, limit int) (*models.SearchResponse, error) {
	field := factory.Params().Field
	raw := make(map[int][]byte)
	for docID, doc := range docs {
		if doc == nil {
			continue
		}
		if v, ok := doc.Vectors[field]; ok {
			raw[docID] = c.Encode(v)
			continue
		}
		if encoded, ok := doc.EncodedVectors[field]; ok {
			b, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("document %d: field %s: invalid base64: %w", docID, field, err)
			}
			raw[docID] = codec.EncodeRaw(b)
		}
	}

	var values docvalues.BinaryValues
	if len(raw) > 0 {
		mem, err := docvalues.NewMemoryValues(raw)
		if err != nil {
			return nil, err
		}
		values = mem
	}
	session := factory.NewSession(values)

	hits := make([]*models.SearchHit, 0, len(docs))
	for docID, doc := range docs {
		score, err := session.Score(docID)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		hit := &models.SearchHit{DocID: docID, Score: score}
		if doc != nil {
			hit.ID = doc.ID
			hit.Name = doc.Name
		}
		if explain {
			exp, err := session.Explain(docID, nil)
			if err != nil {
				return nil, err
			}
			hit.Explanation = exp
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	resp := &models.SearchResponse{Total: len(hits)}
	if len(hits) > 0 {
		resp.MaxScore = hits[0].Score
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	resp.Hits = hits
	return resp, nil
}
