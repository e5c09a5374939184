package enrich

import (
	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
)

type DistrictLocator interface {
	DistrictFor(lat, lon float64, city string) (string, error)
}

type NearbyFinder interface {
	Nearby(lat, lon, radiusM float64) datastructure.NearbyResult
}

// Engine derives the district and the nearby POIs of a coordinate. It is shared by the
// stream pipeline and the query server.
type Engine struct {
	districts DistrictLocator
	nearby    NearbyFinder
}

func NewEngine(districts DistrictLocator, nearby NearbyFinder) *Engine {
	return &Engine{
		districts: districts,
		nearby:    nearby,
	}
}

func (e *Engine) District(lat, lon float64, city string) (string, error) {
	return e.districts.DistrictFor(lat, lon, city)
}

func (e *Engine) Nearby(lat, lon, radiusM float64) datastructure.NearbyResult {
	return e.nearby.Nearby(lat, lon, radiusM)
}

func (e *Engine) Enrich(lat, lon float64, city string, radiusM float64) (datastructure.EnrichmentResult, error) {
	district, err := e.districts.DistrictFor(lat, lon, city)
	if err != nil {
		return datastructure.EnrichmentResult{}, err
	}

	return datastructure.EnrichmentResult{
		District: district,
		Nearby:   e.nearby.Nearby(lat, lon, radiusM),
	}, nil
}
