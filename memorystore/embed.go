package memorystore

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbedder is a deterministic, dependency-free Embedder: it hashes
// rolling windows of the input text into a fixed-size vector. Store uses it
// when no other Embedder is configured; the vector is saved on the record,
// and no search path in this package reads it.
type HashEmbedder struct {
	Dimensions int
}

func (h HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dims := h.Dimensions
	if dims <= 0 {
		dims = 32
	}
	vec := make([]float64, dims)
	if text == "" {
		return vec, nil
	}

	hasher := fnv.New64a()
	window := 4
	for i := 0; i < len(text); i++ {
		end := i + window
		if end > len(text) {
			end = len(text)
		}
		hasher.Reset()
		hasher.Write([]byte(text[i:end]))
		sum := hasher.Sum64()
		bucket := int(sum % uint64(dims))
		vec[bucket] += 1.0
	}
	return normalize(vec), nil
}

func normalize(vec []float64) []float64 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return vec
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
