package stats

import (
	"math"
	"sort"
)

func Sum(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s
}

// Mean returns 0 for an empty series.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return Sum(vals) / float64(len(vals))
}

// SampleStdDev uses the n-1 denominator; fewer than two values give 0.
func SampleStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := Mean(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)-1))
}

// DownsideDeviation is the root mean square of the negative values, and the
// number of negatives it was computed over.
func DownsideDeviation(vals []float64) (float64, int) {
	s, n := 0.0, 0
	for _, v := range vals {
		if v < 0 {
			s += v * v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return math.Sqrt(s / float64(n)), n
}

// Percentile uses linear interpolation between closest ranks, p in (0, 100].
func Percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Subtract returns vals with c subtracted from every element.
func Subtract(vals []float64, c float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v - c
	}
	return out
}
