// Package face matches probe descriptors against an enrolled gallery.
// Descriptor extraction is external; this package only sees fixed-length
// float vectors.
package face

import "math"

// DefaultThreshold is the strict upper bound on match distance.
const DefaultThreshold = 0.6

// Enrollment pairs an identity with its enrolled descriptor.
type Enrollment struct {
	UserID     string
	Descriptor []float64
}

// Match is a successful nearest-neighbor result.
type Match struct {
	UserID   string
	Distance float64
}

// Nearest returns the gallery entry closest to the probe by Euclidean
// distance, if that distance is strictly below the threshold. Under an exact
// distance tie the earliest gallery entry wins. An empty gallery, or no entry
// under the threshold, reports no match.
func Nearest(probe []float64, gallery []Enrollment, threshold float64) (Match, bool) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	best := Match{Distance: math.Inf(1)}
	found := false
	for _, entry := range gallery {
		if len(entry.Descriptor) != len(probe) {
			continue
		}
		d := euclidean(probe, entry.Descriptor)
		if d < best.Distance {
			best = Match{UserID: entry.UserID, Distance: d}
			found = true
		}
	}
	if !found || best.Distance >= threshold {
		return Match{}, false
	}
	return best, true
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
