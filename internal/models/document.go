// Package models defines core data structures for segments, documents, and search requests.
package models

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Segment is an immutable batch of documents with its own doc id space starting at 0.
type Segment struct {
	ID        string    `json:"id" db:"id"`
	DocCount  int       `json:"doc_count" db:"doc_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Document is a stored document, addressed by segment and doc id.
type Document struct {
	Segment string `json:"segment" db:"segment_id"`
	DocID   int    `json:"doc_id" db:"doc_id"`
	ID      string `json:"id" db:"external_id"`
	Name    string `json:"name" db:"name"`
}

// DocumentInput is the input for indexing a document.
type DocumentInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	// Vectors holds float vectors by field name.
	Vectors map[string][]float64 `json:"vectors,omitempty"`
	// EncodedVectors holds base64 encoded raw vector bytes by field name, as a binary field receives them.
	EncodedVectors map[string]string `json:"encoded_vectors,omitempty"`
}

// IndexRequest is the body of a segment indexing request.
type IndexRequest struct {
	Documents []*DocumentInput `json:"documents"`
}

// Validate checks that the request holds at least one well-formed document.
func (r *IndexRequest) Validate() error {
	if len(r.Documents) == 0 {
		return fmt.Errorf("documents are required")
	}
	for i, doc := range r.Documents {
		if doc == nil {
			return fmt.Errorf("document %d is null", i)
		}
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the vector fields of the document.
func (d *DocumentInput) Validate() error {
	for field, v := range d.Vectors {
		if field == "" {
			return fmt.Errorf("vector field name is empty")
		}
		if len(v) == 0 {
			return fmt.Errorf("vector field %s is empty", field)
		}
	}
	for field, encoded := range d.EncodedVectors {
		if field == "" {
			return fmt.Errorf("vector field name is empty")
		}
		if _, dup := d.Vectors[field]; dup {
			return fmt.Errorf("field %s given both as vector and encoded vector", field)
		}
		if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
			return fmt.Errorf("field %s: invalid base64: %w", field, err)
		}
	}
	return nil
}
