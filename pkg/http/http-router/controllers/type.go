package controllers

import "github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"

type GeoService interface {
	District(lat, lon float64, city string) (string, error)
	Nearby(lat, lon float64, radius int) datastructure.NearbyResult
	Geocode(lat, lon float64, city string, radius int) (datastructure.EnrichmentResult, error)
}
