package util

import "math"

// VolumeCurve maps the 0-100 volume shown to users onto the 0.0-1.0 volume
// of a media element.
type VolumeCurve int

const (
	// LinearCurve uses media = ui/100.
	LinearCurve VolumeCurve = iota
	// CubicCurve uses media = (ui/100)^3, the perceptual loudness curve some
	// players apply to their own slider.
	CubicCurve
)

// ToMedia converts a UI volume to a media volume. Out of range input is
// clamped first.
func (c VolumeCurve) ToMedia(ui int) float64 {
	v := float64(Clamp(ui, 0, 100)) / 100
	if c == CubicCurve {
		return v * v * v
	}
	return v
}

// FromMedia converts a media volume back to a UI volume. A muted element
// always reads as 0.
func (c VolumeCurve) FromMedia(v float64, muted bool) int {
	if muted || math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > 1 {
		v = 1
	}
	if c == CubicCurve {
		v = math.Cbrt(v)
	}
	return Clamp(int(math.Round(v*100)), 0, 100)
}
