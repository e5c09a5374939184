package geo

import (
	"math"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// IsMissing reports the upstream sentinel for an absent coordinate.
func (c Coordinate) IsMissing() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Centroid is the arithmetic mean of the given vertices, the way an area feature is
// collapsed to a single point. ok is false for an empty vertex list.
func Centroid(lats, lons []float64) (lat, lon float64, ok bool) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return 0, 0, false
	}
	for i := range lats {
		lat += lats[i]
		lon += lons[i]
	}
	n := float64(len(lats))
	return lat / n, lon / n, true
}

// LatitudeBand returns [lat-d, lat+d] where d is the angular size of radiusM along a meridian.
// Any point within great-circle distance radiusM of lat lies inside the band, since the
// haversine distance is never shorter than the meridional separation.
func LatitudeBand(lat, radiusM float64) (float64, float64) {
	d := radToDeg(radiusM / EarthRadiusM)
	// a hair of slack so float rounding never drops a boundary point.
	d += 1e-9
	return lat - d, lat + d
}

// GetDestinationPoint returns the point reached from (lat1, lon1) travelling dist meters along
// the great circle with the given initial bearing in degrees.
func GetDestinationPoint(lat1, lon1 float64, bearing float64, dist float64) (float64, float64) {

	dr := dist / EarthRadiusM

	bearing = degToRad(bearing)

	lat1 = degToRad(lat1)
	lon1 = degToRad(lon1)

	lat2Part1 := math.Sin(lat1) * math.Cos(dr)
	lat2Part2 := math.Cos(lat1) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))

	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)
	lon2 = math.Mod((lon2+3*math.Pi), (2*math.Pi)) - math.Pi

	return radToDeg(lat2), radToDeg(lon2)
}
