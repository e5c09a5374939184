package geo

import "math"

const (
	// EarthRadiusM is the sphere radius every distance in this module is measured on.
	EarthRadiusM = 6371000.0
	kRad         = math.Pi / 180.0
)

// sin^2(a/2)
func havFunction(angleRad float64) float64 {
	return math.Pow(math.Sin(angleRad/2.0), 2)
}

func degToRad(d float64) float64 {
	return d * kRad
}

func radToDeg(r float64) float64 {
	return r / kRad
}

// HaversineDistance returns the great-circle distance in meters between two
// points given in degrees.
func HaversineDistance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	latOneRad := degToRad(latOne)
	latTwoRad := degToRad(latTwo)

	a := havFunction(latTwoRad-latOneRad) +
		math.Cos(latOneRad)*math.Cos(latTwoRad)*havFunction(degToRad(lonTwo-lonOne))

	return 2 * EarthRadiusM * math.Asin(math.Sqrt(a))
}
