// Package geom converts between millimeters and printer dots
package geom

import "math"

// DotsPerMm is the print head resolution (203 DPI class head).
const DotsPerMm = 8

// MmToDots converts millimeters to device dots, rounded to the nearest dot.
func MmToDots(mm float64) int {
	return int(math.Round(mm * DotsPerMm))
}

// DotsToMm converts device dots back to millimeters.
func DotsToMm(dots int) float64 {
	return float64(dots) / DotsPerMm
}

// InBounds reports whether a dot position lies on a label of the given
// dimensions in millimeters.
func InBounds(x, y int, widthMm, heightMm float64) bool {
	return x >= 0 && y >= 0 && x <= MmToDots(widthMm) && y <= MmToDots(heightMm)
}
