package datastructure

// Category names a POI class. The set comes from the category rules configuration;
// the constants below are the defaults the service ships with.
type Category string

const (
	Subway       Category = "subway"
	Pharmacy     Category = "pharmacy"
	Kindergarten Category = "kindergarten"
	School       Category = "school"
	Bank         Category = "bank"
	Supermarket  Category = "supermarket"
	Convenience  Category = "convenience"
	Mall         Category = "mall"
)

// ShopCategories collapse into the single "shop" output field, in this order.
var ShopCategories = []Category{Supermarket, Convenience, Mall}

// POIRecord model info
// @Description point of interest taken from an osm node, or from the centroid of an osm way.
type POIRecord struct {
	Category Category `json:"category"`
	Name     string   `json:"name"` // name:ru, falls back to name, else empty
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
}

func NewPOIRecord(category Category, name string, lat, lon float64) POIRecord {
	return POIRecord{
		Category: category,
		Name:     name,
		Lat:      lat,
		Lon:      lon,
	}
}

// NearbyResult maps a category to at most MaxNearbyNames distinct names.
// Categories without matches are absent.
type NearbyResult map[Category][]string

const MaxNearbyNames = 5

// EnrichmentResult model info
// @Description geo facts derived for one coordinate.
type EnrichmentResult struct {
	District string       `json:"district"`
	Nearby   NearbyResult `json:"nearby"`
}
