package index

import "math"

// entry is one non-zero cell of a sparse row: a vocabulary column and its
// weight.
type entry struct {
	Col    int
	Weight float64
}

// vector is a sparse term-weight vector sorted by column for merge-join.
type vector []entry

// norm returns the Euclidean length of v.
func (v vector) norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.Weight * e.Weight
	}
	return math.Sqrt(sum)
}

// normalize scales v to unit length in place. A zero vector is left as is.
func (v vector) normalize() {
	n := v.norm()
	if n == 0 {
		return
	}
	for i := range v {
		v[i].Weight /= n
	}
}

// cosine returns the cosine similarity of two column-sorted vectors using a
// merge-join. It is 0 when either vector has zero length and is clamped to
// [0, 1] to absorb rounding on unit vectors.
func cosine(a, b vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Col == b[j].Col:
			dot += a[i].Weight * b[j].Weight
			i++
			j++
		case a[i].Col < b[j].Col:
			i++
		default:
			j++
		}
	}
	denom := a.norm() * b.norm()
	if denom == 0 {
		return 0
	}
	sim := dot / denom
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}
