// Package vector provides similarity scoring between float64 vectors.
package vector

import "math"

// SquaredNorm returns the sum of squares of x.
func SquaredNorm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Dot returns the inner product of a and b. Only the common prefix is used when lengths differ.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

// DotAndNorm returns the inner product of doc and query and the squared norm of doc,
// computed in a single pass over both vectors.
func DotAndNorm(doc, query []float64) (dot, docNorm float64) {
	n := min(len(doc), len(query))
	doc = doc[:n]
	query = query[:n]
	for i, d := range doc {
		dot += d * query[i]
		docNorm += d * d
	}
	return dot, docNorm
}

// Score rates doc against query, whose squared norm is queryNorm.
// A zero norm on either side scores 0 in every mode.
func Score(doc, query []float64, queryNorm float64, mode Mode) float64 {
	dot, docNorm := DotAndNorm(doc, query)
	if docNorm <= 0 || queryNorm <= 0 {
		return 0
	}
	if mode == ModeDot {
		return dot
	}
	cos := dot / math.Sqrt(docNorm*queryNorm)
	if mode == ModeUnitCosine {
		return MapUnit(cos)
	}
	return cos
}

// Cosine returns the cosine similarity of a and b, or 0 if either has zero norm.
func Cosine(a, b []float64) float64 {
	return Score(a, b, SquaredNorm(b), ModeCosine)
}

// MapUnit maps a cosine in [-1, 1] monotonically onto [0, 1].
func MapUnit(cos float64) float64 {
	return (cos + 1) * 0.5
}
