package proximity

import (
	"sort"
	"sync"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/lintang-b-s/osm-geoenrich/pkg/geo"

	"golang.org/x/exp/rand"
)

// Finder answers "which named features of each category lie within r meters". Records of a
// category are kept sorted by latitude so a query only measures the latitude band that can
// possibly hold a match.
type Finder struct {
	categories map[datastructure.Category][]datastructure.POIRecord

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Finder)

// WithSeed fixes the sampling source.
func WithSeed(seed uint64) Option {
	return func(f *Finder) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// NewFinder copies store, the caller keeps ownership of its slices.
func NewFinder(store map[datastructure.Category][]datastructure.POIRecord, opts ...Option) *Finder {
	f := &Finder{
		categories: make(map[datastructure.Category][]datastructure.POIRecord, len(store)),
		rng:        rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for category, records := range store {
		sorted := make([]datastructure.POIRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Lat < sorted[j].Lat
		})
		f.categories[category] = sorted
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Nearby returns, per category, up to MaxNearbyNames distinct non-empty names of records whose
// haversine distance to (lat, lon) is at most radiusM. When more names qualify, a uniform
// random sample is returned. Categories with no match are omitted.
func (f *Finder) Nearby(lat, lon, radiusM float64) datastructure.NearbyResult {
	result := make(datastructure.NearbyResult)
	if radiusM < 0 {
		return result
	}

	lo, hi := geo.LatitudeBand(lat, radiusM)
	for category, records := range f.categories {
		names := withinRadius(records, lat, lon, radiusM, lo, hi)
		if len(names) == 0 {
			continue
		}
		result[category] = f.sample(names, datastructure.MaxNearbyNames)
	}
	return result
}

// Categories returns the loaded categories with their record counts.
func (f *Finder) Categories() map[datastructure.Category]int {
	counts := make(map[datastructure.Category]int, len(f.categories))
	for category, records := range f.categories {
		counts[category] = len(records)
	}
	return counts
}

// withinRadius returns the distinct names in first-seen order. records must be sorted by latitude.
// boundaryToleranceM absorbs float rounding for records lying exactly on the radius.
const boundaryToleranceM = 1e-6

func withinRadius(records []datastructure.POIRecord, lat, lon, radiusM, lo, hi float64) []string {
	start := sort.Search(len(records), func(i int) bool {
		return records[i].Lat >= lo
	})

	seen := make(map[string]struct{})
	names := []string{}
	for i := start; i < len(records) && records[i].Lat <= hi; i++ {
		rec := records[i]
		if rec.Name == "" {
			continue
		}
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		if geo.HaversineDistance(lat, lon, rec.Lat, rec.Lon) > radiusM+boundaryToleranceM {
			continue
		}
		seen[rec.Name] = struct{}{}
		names = append(names, rec.Name)
	}
	return names
}

// sample picks k names uniformly without replacement, names is reordered in place.
func (f *Finder) sample(names []string, k int) []string {
	if len(names) <= k {
		return names
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + f.rng.Intn(len(names)-i)
		names[i], names[j] = names[j], names[i]
	}
	return names[:k]
}
