package district

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const minskBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name:ru": "Центральный", "name": "Centralny"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [
          [[27.50, 53.88], [27.60, 53.88], [27.60, 53.93], [27.50, 53.93], [27.50, 53.88]],
          [[27.58, 53.90], [27.59, 53.90], [27.59, 53.91], [27.58, 53.91], [27.58, 53.90]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Frunzensky"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[27.40, 53.88], [27.50, 53.88], [27.50, 53.93], [27.40, 53.93], [27.40, 53.88]]],
          [[[27.30, 53.80], [27.35, 53.80], [27.35, 53.85], [27.30, 53.85], [27.30, 53.80]]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {"name:ru": "Точка"},
      "geometry": {"type": "Point", "coordinates": [27.55, 53.90]}
    }
  ]
}`

func writeBoundaries(t *testing.T, dir, city, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, city+boundaryExt), []byte(content), 0644))
}

func TestDistrictFor(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, "minsk", minskBoundaries)
	idx := NewIndex(zap.NewNop(), dir, "name:ru")

	tests := []struct {
		name     string
		lat, lon float64
		city     string
		want     string
	}{
		{name: "inside polygon", lat: 53.9, lon: 27.55, city: "minsk", want: "Центральный"},
		{name: "inside hole", lat: 53.905, lon: 27.585, city: "minsk", want: ""},
		{name: "inside multipolygon second part", lat: 53.82, lon: 27.32, city: "minsk", want: "Frunzensky"},
		{name: "outside every polygon", lat: 54.5, lon: 28.0, city: "minsk", want: ""},
		{name: "missing coordinate unknown city", lat: 0, lon: 0, city: "atlantis", want: ""},
		{name: "empty city", lat: 53.9, lon: 27.55, city: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.DistrictFor(tt.lat, tt.lon, tt.city)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"minsk"}, idx.Cities())
}

func TestDistrictForFirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, "overlap", `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"name:ru":"A"},"geometry":{"type":"Polygon","coordinates":[[[0,1],[2,1],[2,3],[0,3],[0,1]]]}},
	  {"type":"Feature","properties":{"name:ru":"B"},"geometry":{"type":"Polygon","coordinates":[[[1,1],[3,1],[3,3],[1,3],[1,1]]]}}
	]}`)
	idx := NewIndex(zap.NewNop(), dir, "name:ru")

	got, err := idx.DistrictFor(2, 1.5, "overlap")
	require.NoError(t, err)
	assert.Equal(t, "A", got)
}

func TestDistrictForGzip(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "minsk"+boundaryExt+".gz"))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(minskBoundaries))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	got, err := NewIndex(zap.NewNop(), dir, "name:ru").DistrictFor(53.9, 27.55, "minsk")
	require.NoError(t, err)
	assert.Equal(t, "Центральный", got)
}

func TestDistrictForLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, "broken", `{"type":"FeatureCollection","features":[`)
	idx := NewIndex(zap.NewNop(), dir, "name:ru")

	t.Run("missing city file", func(t *testing.T) {
		_, err := idx.DistrictFor(53.9, 27.55, "atlantis")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBoundaryLoad)
		assert.Equal(t, pkg.ErrNotFound, pkg.ErrorCode(err))
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := idx.DistrictFor(53.9, 27.55, "broken")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBoundaryLoad)
		assert.Equal(t, pkg.ErrInternalServerError, pkg.ErrorCode(err))
	})

	t.Run("city escaping the boundary dir", func(t *testing.T) {
		_, err := idx.DistrictFor(53.9, 27.55, "../minsk")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBoundaryLoad)
		assert.Equal(t, pkg.ErrBadParamInput, pkg.ErrorCode(err))
	})

	t.Run("failures are not cached", func(t *testing.T) {
		writeBoundaries(t, dir, "atlantis", minskBoundaries)
		got, err := idx.DistrictFor(53.9, 27.55, "atlantis")
		require.NoError(t, err)
		assert.Equal(t, "Центральный", got)
	})
}

func TestPolygonsLoadOncePerCity(t *testing.T) {
	idx := NewIndex(zap.NewNop(), t.TempDir(), "name:ru")

	var loads int32
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	idx.load = func(city string) ([]Polygon, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(20 * time.Millisecond)
		return []Polygon{NewPolygon(city, square)}, nil
	}

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := idx.DistrictFor(0.5, 0.5, "grid")
			if err == nil {
				results[i] = name
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	for _, name := range results {
		assert.Equal(t, "grid", name)
	}
}

func TestPolygonsLoadErrorShared(t *testing.T) {
	idx := NewIndex(zap.NewNop(), t.TempDir(), "name:ru")
	boom := errors.New("boom")
	idx.load = func(string) ([]Polygon, error) { return nil, boom }

	_, err := idx.Polygons("grid")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, idx.Cities())
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, "minsk", minskBoundaries)
	writeBoundaries(t, dir, "brest", minskBoundaries)
	idx := NewIndex(zap.NewNop(), dir, "name:ru")

	err := idx.Preload(context.Background(), []string{"minsk", "atlantis", "brest"}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBoundaryLoad)
	assert.Contains(t, err.Error(), "preload atlantis")

	assert.ElementsMatch(t, []string{"minsk", "brest"}, idx.Cities())

	require.NoError(t, idx.Preload(context.Background(), []string{"minsk"}, 1))
	require.NoError(t, idx.Preload(context.Background(), nil, 4))
}
