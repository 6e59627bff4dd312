// Package physics provides collision detection and distance utilities.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// CirclesOverlap reports whether two circles overlap.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	return WithinRange(x1, y1, x2, y2, r1+r2)
}

// WithinRange reports whether two points are strictly closer than dist.
// A non-positive dist never matches.
func WithinRange(x1, y1, x2, y2, dist float64) bool {
	if dist <= 0 {
		return false
	}
	return DistanceSquared(x1, y1, x2, y2) < dist*dist
}

// Direction returns the unit vector pointing from (x1, y1) to (x2, y2)
// together with the distance between them. Coincident points yield a zero
// vector; the length is treated as 1 so the result is never NaN.
func Direction(x1, y1, x2, y2 float64) (dx, dy, dist float64) {
	dx = x2 - x1
	dy = y2 - y1
	dist = math.Hypot(dx, dy)
	if dist == 0 {
		return 0, 0, 0
	}
	return dx / dist, dy / dist, dist
}

// Normalize scales (x, y) to unit length. The zero vector stays zero.
func Normalize(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
