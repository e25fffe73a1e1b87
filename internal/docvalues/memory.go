package docvalues

import (
	"fmt"
	"sort"
)

// MemoryValues is an in-memory BinaryValues over a sparse set of documents.
type MemoryValues struct {
	docs   []int
	values [][]byte
	pos    int
	doc    int
	found  bool
}

// NewMemoryValues builds an accessor from document values keyed by doc id.
// Negative doc ids are rejected.
func NewMemoryValues(values map[int][]byte) (*MemoryValues, error) {
	docs := make([]int, 0, len(values))
	for doc := range values {
		if doc < 0 {
			return nil, fmt.Errorf("negative doc id %d", doc)
		}
		docs = append(docs, doc)
	}
	sort.Ints(docs)
	m := &MemoryValues{
		docs:   docs,
		values: make([][]byte, len(docs)),
		doc:    NoDoc,
	}
	for i, doc := range docs {
		m.values[i] = values[doc]
	}
	return m, nil
}

// Len returns the number of documents with a value.
func (m *MemoryValues) Len() int {
	return len(m.docs)
}

// DocID returns the current position.
func (m *MemoryValues) DocID() int {
	return m.doc
}

// AdvanceExact moves to target, skipping forward over documents before it.
func (m *MemoryValues) AdvanceExact(target int) (bool, error) {
	if target < m.doc {
		return false, fmt.Errorf("advance from doc %d to %d: %w", m.doc, target, ErrBackwardAdvance)
	}
	rest := m.docs[m.pos:]
	m.pos += sort.SearchInts(rest, target)
	m.doc = target
	m.found = m.pos < len(m.docs) && m.docs[m.pos] == target
	return m.found, nil
}

// BinaryValue returns the value at the current position.
func (m *MemoryValues) BinaryValue() ([]byte, error) {
	if !m.found {
		return nil, fmt.Errorf("doc %d has no value", m.doc)
	}
	return m.values[m.pos], nil
}
