package usecases

import (
	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
)

type Engine interface {
	District(lat, lon float64, city string) (string, error)
	Nearby(lat, lon, radiusM float64) datastructure.NearbyResult
	Enrich(lat, lon float64, city string, radiusM float64) (datastructure.EnrichmentResult, error)
}
