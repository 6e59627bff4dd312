package draw

import "math"

// enemyVertices is the vertex count of the spiky enemy outline.
const enemyVertices = 7

// EnemyShape fills buf with the enemy outline around (x, y): a seven-point
// star whose vertices alternate between 1.3r and 0.9r.
func EnemyShape(buf []Point, x, y, r float64) []Point {
	buf = buf[:0]
	buf = append(buf, Point{X: x + r, Y: y})
	for i := 1; i < enemyVertices; i++ {
		a := float64(i) / enemyVertices * 2 * math.Pi
		rr := r * 1.3
		if i%2 == 1 {
			rr = r * 0.9
		}
		buf = append(buf, Point{X: x + math.Cos(a)*rr, Y: y + math.Sin(a)*rr})
	}
	return buf
}

// ShipShape fills buf with the player triangle around (x, y), nose up.
func ShipShape(buf []Point, x, y, r float64) []Point {
	return append(buf[:0],
		Point{X: x, Y: y - r},
		Point{X: x + r, Y: y + r},
		Point{X: x - r, Y: y + r},
	)
}
