package exemplars

import (
	"hash/fnv"
	"math"
)

// ProfileDim is the vector size stored for similarity search.
const ProfileDim = 256

// Profile folds the report's entries into a dim-sized frequency vector (FNV-1a of
// each cluster picks the slot) and scales it to unit length. Two corpora that use
// the same characters in similar proportions get a small cosine distance.
// An empty report yields the zero vector.
func (r Report) Profile(dim int) []float32 {
	if dim <= 0 {
		dim = ProfileDim
	}
	acc := make([]float64, dim)
	for _, e := range r.Entries {
		h := fnv.New32a()
		_, _ = h.Write([]byte(e.Cluster))
		acc[h.Sum32()%uint32(dim)] += float64(e.Count)
	}

	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	out := make([]float32, dim)
	if sum == 0 {
		return out
	}
	n := math.Sqrt(sum)
	for i, v := range acc {
		out[i] = float32(v / n)
	}
	return out
}

// CosineDistance returns 1 - cos(a, b); vectors of different length or zero length
// are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
