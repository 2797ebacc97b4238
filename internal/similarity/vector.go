package similarity

import (
	"errors"
	"fmt"
	"math"
)

var errZeroVector = errors.New("zero-length vector")

// meanVector averages equal-length vectors.
func meanVector(vectors [][]float32) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to average")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errZeroVector
	}

	mean := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch: %d != %d", len(v), dim)
		}
		for i, x := range v {
			mean[i] += float64(x)
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean, nil
}

// cosine returns the cosine similarity of two dense vectors.
func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, errZeroVector
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// sparseCosine returns the cosine similarity of two sparse vectors.
func sparseCosine(a, b map[int]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for k, v := range a {
		dot += v * b[k]
	}
	na, nb := sparseNorm(a), sparseNorm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func sparseNorm(v map[int]float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
