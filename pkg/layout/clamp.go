package layout

import "math"

// ClampPosition keeps both coordinates within [MinPosition, MaxPosition].
func ClampPosition(p Point) Point {
	return Point{X: clamp(p.X, MinPosition, MaxPosition), Y: clamp(p.Y, MinPosition, MaxPosition)}
}

// ClampWidth keeps w within [MinWidth, MaxWidth].
func ClampWidth(w float64) float64 { return clamp(w, MinWidth, MaxWidth) }

// ClampHeight keeps h within [MinHeight, MaxHeight].
func ClampHeight(h float64) float64 { return clamp(h, MinHeight, MaxHeight) }

// NormalizeRotation maps deg into [0, 360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r == 0 || r >= 360 {
		return 0
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
