package utils

import (
	"fmt"
	"math"
)

// dotProduct calculates the dot product of two dense vectors.
func dotProduct(vec1, vec2 []float32) (float32, error) {
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension")
	}
	var product float32
	for i := range vec1 {
		product += vec1[i] * vec2[i]
	}
	return product, nil
}

// magnitude calculates the L2 norm (magnitude) of a dense vector.
func magnitude(vec []float32) float32 {
	var sumOfSquares float32
	for _, val := range vec {
		sumOfSquares += val * val
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}

// CosineSimilarity calculates the cosine similarity between two dense
// embedding vectors.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	dot, err := dotProduct(vec1, vec2)
	if err != nil {
		return 0, err
	}

	mag1 := magnitude(vec1)
	mag2 := magnitude(vec2)

	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}

	return dot / (mag1 * mag2), nil
}

// NormalizeSparse scales a sparse term-weight vector to unit L2 norm in
// place. A zero vector is left untouched.
func NormalizeSparse(vec map[string]float64) {
	var sumOfSquares float64
	for _, v := range vec {
		sumOfSquares += v * v
	}
	if sumOfSquares == 0 {
		return
	}
	norm := math.Sqrt(sumOfSquares)
	for term := range vec {
		vec[term] /= norm
	}
}

// DotSparse returns the dot product of two sparse term-weight vectors.
// For unit-normalized inputs this is their cosine similarity.
func DotSparse(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var product float64
	for term, av := range a {
		if bv, ok := b[term]; ok {
			product += av * bv
		}
	}
	return product
}
