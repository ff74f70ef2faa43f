// Package vectorstore holds similarity helpers shared by the store backends.
// The store contract itself is domain.VectorStore.
package vectorstore

import "math"

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// are compared over the shorter prefix; a zero vector scores 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
