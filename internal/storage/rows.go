package storage

import (
	"database/sql"
	"fmt"

	"github.com/hyperjump/fastcos/internal/docvalues"
)

// RowValues exposes a doc-values query as a forward-only accessor. Rows must be
// ordered by doc id.
type RowValues struct {
	rows *sql.Rows

	doc   int
	value []byte

	// next row read ahead of doc
	nextDoc   int
	nextValue []byte
	peeked    bool
	done      bool
}

func newRowValues(rows *sql.Rows) *RowValues {
	return &RowValues{rows: rows, doc: docvalues.NoDoc}
}

// DocID returns the doc the accessor is positioned on, or docvalues.NoDoc.
func (r *RowValues) DocID() int {
	return r.doc
}

// AdvanceExact moves to target and reports whether target has a value.
// On false the accessor stays positioned at target with no value.
func (r *RowValues) AdvanceExact(target int) (bool, error) {
	if target < r.doc {
		return false, fmt.Errorf("advance from doc %d to %d: %w", r.doc, target, docvalues.ErrBackwardAdvance)
	}
	for {
		if err := r.peek(); err != nil {
			return false, err
		}
		if r.done || r.nextDoc > target {
			r.doc = target
			r.value = nil
			return false, nil
		}
		r.peeked = false
		if r.nextDoc == target {
			r.doc = target
			r.value = r.nextValue
			return true, nil
		}
	}
}

// BinaryValue returns the value of the current doc.
func (r *RowValues) BinaryValue() ([]byte, error) {
	if r.value == nil {
		return nil, fmt.Errorf("doc %d has no value", r.doc)
	}
	return r.value, nil
}

// Close releases the underlying rows.
func (r *RowValues) Close() error {
	return r.rows.Close()
}

func (r *RowValues) peek() error {
	if r.peeked || r.done {
		return nil
	}
	if !r.rows.Next() {
		r.done = true
		return r.rows.Err()
	}
	var value []byte
	if err := r.rows.Scan(&r.nextDoc, &value); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	r.nextValue = value
	r.peeked = true
	return nil
}
