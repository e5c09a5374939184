package district

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lintang-b-s/osm-geoenrich/pkg"
	"github.com/lintang-b-s/osm-geoenrich/pkg/concurrent"
	"github.com/lintang-b-s/osm-geoenrich/pkg/geo"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrBoundaryLoad = errors.New("district boundary load failed")
)

const (
	boundaryExt = ".geojson"
)

// Index answers "which district of city contains a point". Boundary files are read on
// the first query for a city and kept for the lifetime of the process.
type Index struct {
	log          *zap.Logger
	dir          string
	nameProperty string

	mu     sync.RWMutex
	cities map[string][]Polygon
	group  singleflight.Group

	load func(city string) ([]Polygon, error)
}

func NewIndex(log *zap.Logger, dir, nameProperty string) *Index {
	idx := &Index{
		log:          log,
		dir:          dir,
		nameProperty: nameProperty,
		cities:       make(map[string][]Polygon),
	}
	idx.load = idx.loadCity
	return idx
}

// DistrictFor returns the name of the first polygon of city, in file order, containing
// (lat, lon), or "" when none does. (0, 0) means the coordinate is missing upstream and
// never touches boundary data; neither does an empty city.
func (idx *Index) DistrictFor(lat, lon float64, city string) (string, error) {
	if geo.NewCoordinate(lat, lon).IsMissing() || city == "" {
		return "", nil
	}

	polygons, err := idx.Polygons(city)
	if err != nil {
		return "", err
	}

	for _, p := range polygons {
		if p.Contains(lat, lon) {
			return p.Name, nil
		}
	}
	return "", nil
}

// Polygons returns the cached polygons of city, loading them on first use. Concurrent first
// queries for the same city share a single load. Failed loads are not cached.
func (idx *Index) Polygons(city string) ([]Polygon, error) {
	idx.mu.RLock()
	polygons, ok := idx.cities[city]
	idx.mu.RUnlock()
	if ok {
		return polygons, nil
	}

	v, err, _ := idx.group.Do(city, func() (interface{}, error) {
		idx.mu.RLock()
		cached, ok := idx.cities[city]
		idx.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := idx.load(city)
		if err != nil {
			return nil, err
		}

		idx.mu.Lock()
		idx.cities[city] = loaded
		idx.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Polygon), nil
}

// Preload loads the boundaries of cities on up to workers goroutines. It returns the
// failed loads joined; the cities that did load stay cached either way.
func (idx *Index) Preload(ctx context.Context, cities []string, workers int) error {
	var (
		errsMu sync.Mutex
		errs   []error
	)
	pool := concurrent.NewWorkerPool(workers, len(cities), func(city string) {
		if _, err := idx.Polygons(city); err != nil {
			errsMu.Lock()
			errs = append(errs, fmt.Errorf("preload %s: %w", city, err))
			errsMu.Unlock()
		}
	})
	pool.Start()

	for _, city := range cities {
		if err := pool.Submit(ctx, city); err != nil {
			pool.Close()
			return err
		}
	}
	pool.Close()

	return errors.Join(errs...)
}

// Cities lists the cities loaded so far.
func (idx *Index) Cities() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	cities := make([]string, 0, len(idx.cities))
	for city := range idx.cities {
		cities = append(cities, city)
	}
	return cities
}

func (idx *Index) loadCity(city string) ([]Polygon, error) {
	if filepath.Base(city) != city || strings.ContainsAny(city, `/\`) || city == "." || city == ".." {
		return nil, pkg.WrapErrorf(ErrBoundaryLoad, pkg.ErrBadParamInput, "invalid city key %q", city)
	}

	path, err := idx.boundaryPath(city)
	if err != nil {
		return nil, pkg.WrapErrorf(fmt.Errorf("%w: %w", ErrBoundaryLoad, err), pkg.ErrNotFound,
			"no boundary data for city %q", city)
	}

	polygons, skipped, err := readBoundaryFile(path, idx.nameProperty)
	if err != nil {
		return nil, pkg.WrapErrorf(fmt.Errorf("%w: %w", ErrBoundaryLoad, err), pkg.ErrInternalServerError,
			"boundary file %s", path)
	}

	idx.log.Info("district boundaries loaded",
		zap.String("city", city),
		zap.String("path", path),
		zap.Int("polygons", len(polygons)),
		zap.Int("skipped_features", skipped),
	)
	return polygons, nil
}

// boundaryPath resolves <dir>/<city>.geojson, then the gzip variant.
func (idx *Index) boundaryPath(city string) (string, error) {
	plain := filepath.Join(idx.dir, city+boundaryExt)
	_, err := os.Stat(plain)
	if err == nil {
		return plain, nil
	}

	gz := plain + ".gz"
	if _, gzErr := os.Stat(gz); gzErr == nil {
		return gz, nil
	}
	return "", err
}
