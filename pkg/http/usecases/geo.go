package usecases

import (
	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"

	"go.uber.org/zap"
)

// DefaultRadius is used when a nearby query does not name one.
const DefaultRadius = 500

type GeoService struct {
	log    *zap.Logger
	engine Engine
}

func New(log *zap.Logger, engine Engine) *GeoService {
	return &GeoService{
		log:    log,
		engine: engine,
	}
}

func (s *GeoService) District(lat, lon float64, city string) (string, error) {
	district, err := s.engine.District(lat, lon, city)
	if err != nil {
		return "", err
	}

	s.log.Info("district query",
		zap.Float64("lat", lat), zap.Float64("lon", lon), zap.String("city", city),
		zap.String("district", district))
	return district, nil
}

func (s *GeoService) Nearby(lat, lon float64, radius int) datastructure.NearbyResult {
	if radius <= 0 {
		radius = DefaultRadius
	}
	nearby := s.engine.Nearby(lat, lon, float64(radius))

	s.log.Info("nearby query",
		zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Int("radius", radius),
		zap.Int("categories", len(nearby)))
	return nearby
}

func (s *GeoService) Geocode(lat, lon float64, city string, radius int) (datastructure.EnrichmentResult, error) {
	if radius <= 0 {
		radius = DefaultRadius
	}
	res, err := s.engine.Enrich(lat, lon, city, float64(radius))
	if err != nil {
		return datastructure.EnrichmentResult{}, err
	}

	s.log.Info("geocode query",
		zap.Float64("lat", lat), zap.Float64("lon", lon), zap.String("city", city), zap.Int("radius", radius),
		zap.String("district", res.District), zap.Int("categories", len(res.Nearby)))
	return res, nil
}
