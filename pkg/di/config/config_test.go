package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg"
	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/lintang-b-s/osm-geoenrich/pkg/osmload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.OSMFile)
	assert.Equal(t, "geo_files", cfg.BoundaryDir)
	assert.Equal(t, "name:ru", cfg.DistrictNameProperty)
	assert.Empty(t, cfg.PreloadCities)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "raw_posts", cfg.RawStream)
	assert.Equal(t, "geo_ready_posts", cfg.ReadyStream)
	assert.Equal(t, "geo_dead_posts", cfg.DeadLetterStream)
	assert.Equal(t, 5*time.Second, cfg.StreamBlock)
	assert.Equal(t, time.Second, cfg.StreamBackoff)
	assert.Equal(t, 500.0, cfg.StreamRadius)
	assert.Equal(t, 0, cfg.StreamMaxAttempts)
	assert.Equal(t, "cursor.db", cfg.CursorDB)
	assert.Equal(t, 6060, cfg.APIPort)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, time.RFC3339Nano, cfg.LogTimeFormat)
	assert.Equal(t, osmload.DefaultCategoryRules(), cfg.CategoryRules)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
OSM_FILE: minsk.osm.pbf
API_PORT: 9090
STREAM_BLOCK: 250ms
CITY_OBJECTS:
  subway:
    key: railway
    value: subway_entrance
  cafe:
    key: amenity
    value: cafe
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minsk.osm.pbf", cfg.OSMFile)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, 250*time.Millisecond, cfg.StreamBlock)
	assert.Equal(t, "raw_posts", cfg.RawStream)
	assert.Equal(t, []osmload.CategoryRule{
		{Category: "cafe", Key: "amenity", Value: "cafe"},
		{Category: datastructure.Subway, Key: "railway", Value: "subway_entrance"},
	}, cfg.CategoryRules)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("API_PORT: 9090\n"), 0644))

	t.Setenv("API_PORT", "7070")
	t.Setenv("STREAM_MAX_ATTEMPTS", "3")
	t.Setenv("PRELOAD_CITIES", "minsk,brest")
	t.Setenv("CITY_OBJECTS", `{"bank": {"key": "amenity", "value": "bank"}}`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.APIPort)
	assert.Equal(t, 3, cfg.StreamMaxAttempts)
	assert.Equal(t, []string{"minsk", "brest"}, cfg.PreloadCities)
	assert.Equal(t, []osmload.CategoryRule{
		{Category: datastructure.Bank, Key: "amenity", Value: "bank"},
	}, cfg.CategoryRules)
}

func TestLoadInvalidCityObjects(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CITY_OBJECTS", `subway=railway`)

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, pkg.ErrBadParamInput, pkg.ErrorCode(err))
}

func TestNewReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SERVICE_NAME=geo-test\nOSM_FILE=minsk.osm.pbf\n"), 0644))
	t.Cleanup(func() {
		_ = os.Unsetenv("SERVICE_NAME")
		_ = os.Unsetenv("OSM_FILE")
	})

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "geo-test", cfg.ServiceName)
	assert.Equal(t, "minsk.osm.pbf", cfg.OSMFile)
	assert.Equal(t, "geo-test", cfg.Logger().ServiceName)
}

func TestNewValidates(t *testing.T) {
	chdirTemp(t)

	_, err := New()
	require.Error(t, err)
	assert.Equal(t, pkg.ErrBadParamInput, pkg.ErrorCode(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{OSMFile: "minsk.osm.pbf", StreamRadius: 500, StreamBlock: time.Second, APIPort: 6060}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing osm file", mutate: func(c *Config) { c.OSMFile = "" }},
		{name: "zero radius", mutate: func(c *Config) { c.StreamRadius = 0 }},
		{name: "zero block", mutate: func(c *Config) { c.StreamBlock = 0 }},
		{name: "negative attempts", mutate: func(c *Config) { c.StreamMaxAttempts = -1 }},
		{name: "port out of range", mutate: func(c *Config) { c.APIPort = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, pkg.ErrBadParamInput, pkg.ErrorCode(err))
		})
	}
}
