package scoring

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hyperjump/fastcos/internal/vector"
)

// QueryVector is an immutable query vector with its precomputed squared norm.
// It may be shared by the sessions of every segment of a query.
type QueryVector struct {
	values []float64
	norm   float64
}

// NewQueryVector copies values and computes their squared norm.
func NewQueryVector(values []float64) (*QueryVector, error) {
	if len(values) == 0 {
		return nil, errors.New("query vector is empty")
	}
	v := append([]float64(nil), values...)
	return &QueryVector{values: v, norm: vector.SquaredNorm(v)}, nil
}

// Len returns the number of components.
func (q *QueryVector) Len() int {
	return len(q.values)
}

// Norm returns the sum of squares of the components.
func (q *QueryVector) Norm() float64 {
	return q.norm
}

// Values returns a copy of the components.
func (q *QueryVector) Values() []float64 {
	return append([]float64(nil), q.values...)
}

// String renders the components as "[a, b, c]".
func (q *QueryVector) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range q.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
