package osmload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" lat="53.9" lon="27.5">
  <tag k="railway" v="subway_entrance"/>
  <tag k="name:ru" v="Немига"/>
  <tag k="name" v="Niamiha"/>
 </node>
 <node id="2" lat="53.91" lon="27.51">
  <tag k="amenity" v="pharmacy"/>
  <tag k="name" v="  Apteka 1 "/>
 </node>
 <node id="3" lat="53.0" lon="27.0"/>
 <node id="4" lat="53.2" lon="27.2"/>
 <node id="5" lat="53.2" lon="27.0"/>
 <node id="6" lat="53.0" lon="27.2"/>
 <node id="7" lat="53.92" lon="27.52">
  <tag k="amenity" v="bank"/>
 </node>
 <way id="10">
  <nd ref="3"/><nd ref="4"/><nd ref="5"/><nd ref="6"/>
  <tag k="amenity" v="school"/>
  <tag k="name" v="School 5"/>
 </way>
 <way id="11">
  <nd ref="3"/><nd ref="99"/>
  <tag k="shop" v="mall"/>
  <tag k="name" v="Galleria"/>
 </way>
 <way id="12">
  <nd ref="98"/>
  <tag k="shop" v="supermarket"/>
  <tag k="name" v="Ghost"/>
 </way>
 <way id="13">
  <nd ref="3"/><nd ref="4"/>
  <tag k="highway" v="residential"/>
  <tag k="name" v="Street"/>
 </way>
</osm>
`

func writeExtract(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	loader := NewLoader(zap.NewNop(), DefaultCategoryRules(), false)
	path := writeExtract(t, "minsk.osm", testExtract)

	store, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	t.Run("node with localized name", func(t *testing.T) {
		require.Len(t, store[datastructure.Subway], 1)
		assert.Equal(t, datastructure.NewPOIRecord(datastructure.Subway, "Немига", 53.9, 27.5), store[datastructure.Subway][0])
	})

	t.Run("generic name is trimmed", func(t *testing.T) {
		require.Len(t, store[datastructure.Pharmacy], 1)
		assert.Equal(t, "Apteka 1", store[datastructure.Pharmacy][0].Name)
	})

	t.Run("unnamed record is kept", func(t *testing.T) {
		require.Len(t, store[datastructure.Bank], 1)
		assert.Equal(t, "", store[datastructure.Bank][0].Name)
	})

	t.Run("way centroid", func(t *testing.T) {
		require.Len(t, store[datastructure.School], 1)
		school := store[datastructure.School][0]
		assert.Equal(t, "School 5", school.Name)
		assert.InDelta(t, 53.1, school.Lat, 1e-9)
		assert.InDelta(t, 27.1, school.Lon, 1e-9)
	})

	t.Run("way with partially missing nodes", func(t *testing.T) {
		require.Len(t, store[datastructure.Mall], 1)
		assert.Equal(t, 53.0, store[datastructure.Mall][0].Lat)
		assert.Equal(t, 27.0, store[datastructure.Mall][0].Lon)
	})

	t.Run("way without resolvable nodes is skipped", func(t *testing.T) {
		assert.Empty(t, store[datastructure.Supermarket])
	})

	t.Run("every rule category is present", func(t *testing.T) {
		counts := store.Counts()
		assert.Len(t, counts, len(DefaultCategoryRules()))
		assert.Equal(t, 0, counts[datastructure.Convenience])
		assert.Equal(t, 0, counts[datastructure.Kindergarten])
	})
}

func TestLoadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minsk.osm.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testExtract))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	store, err := NewLoader(zap.NewNop(), DefaultCategoryRules(), false).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, store[datastructure.School], 1)
	assert.Len(t, store[datastructure.Subway], 1)
}

func writeGzipExtract(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenExtractClosesEveryLayer(t *testing.T) {
	t.Run("gzip", func(t *testing.T) {
		r, err := openExtract(writeGzipExtract(t, "minsk.osm.gz", testExtract))
		require.NoError(t, err)

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, testExtract, string(data))

		er, ok := r.(*extractReader)
		require.True(t, ok)
		require.Len(t, er.closers, 2)
		_, isGzip := er.closers[1].(*gzip.Reader)
		assert.True(t, isGzip)

		require.NoError(t, r.Close())
		// the file underneath is closed too
		assert.ErrorIs(t, r.Close(), os.ErrClosed)
	})

	t.Run("plain", func(t *testing.T) {
		r, err := openExtract(writeExtract(t, "minsk.osm", testExtract))
		require.NoError(t, err)
		require.Len(t, r.(*extractReader).closers, 1)
		require.NoError(t, r.Close())
		assert.ErrorIs(t, r.Close(), os.ErrClosed)
	})

	t.Run("not gzip", func(t *testing.T) {
		_, err := openExtract(writeExtract(t, "broken.osm.gz", testExtract))
		assert.Error(t, err)
	})
}

func TestLoadCustomRules(t *testing.T) {
	rules, err := RulesFromMap(map[string]TagRule{
		"street": {Key: "highway", Value: "residential"},
	})
	require.NoError(t, err)

	store, err := NewLoader(zap.NewNop(), rules, false).Load(context.Background(),
		writeExtract(t, "minsk.osm", testExtract))
	require.NoError(t, err)

	assert.Len(t, store, 1)
	require.Len(t, store["street"], 1)
	assert.Equal(t, "Street", store["street"][0].Name)
}

func TestLoadErrors(t *testing.T) {
	loader := NewLoader(zap.NewNop(), DefaultCategoryRules(), false)

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.osm.pbf"))
		assert.ErrorIs(t, err, ErrExtractLoad)
	})

	t.Run("truncated xml", func(t *testing.T) {
		path := writeExtract(t, "broken.osm", `<osm><node id="1" lat="53.9" lon="27.5"><tag k="amenity"`)
		_, err := loader.Load(context.Background(), path)
		assert.ErrorIs(t, err, ErrExtractLoad)
	})

	t.Run("not gzip", func(t *testing.T) {
		path := writeExtract(t, "broken.osm.gz", testExtract)
		_, err := loader.Load(context.Background(), path)
		assert.ErrorIs(t, err, ErrExtractLoad)
	})
}

func TestRulesFromMap(t *testing.T) {
	t.Run("sorted by category", func(t *testing.T) {
		rules, err := RulesFromMap(map[string]TagRule{
			"school":   {Key: "amenity", Value: "school"},
			"pharmacy": {Key: "amenity", Value: "pharmacy"},
		})
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, datastructure.Pharmacy, rules[0].Category)
		assert.Equal(t, datastructure.School, rules[1].Category)
	})

	t.Run("empty value rejected", func(t *testing.T) {
		_, err := RulesFromMap(map[string]TagRule{"bank": {Key: "amenity"}})
		assert.Error(t, err)
	})
}
