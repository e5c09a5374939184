package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg"
	logconfig "github.com/lintang-b-s/osm-geoenrich/pkg/logger/config"
	"github.com/lintang-b-s/osm-geoenrich/pkg/osmload"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	OSMFile              string   `mapstructure:"osm_file"`
	BoundaryDir          string   `mapstructure:"boundary_dir"`
	DistrictNameProperty string   `mapstructure:"district_name_property"`
	PreloadCities        []string `mapstructure:"preload_cities"`
	ShowProgress         bool     `mapstructure:"show_progress"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	RawStream         string        `mapstructure:"raw_stream"`
	ReadyStream       string        `mapstructure:"ready_stream"`
	DeadLetterStream  string        `mapstructure:"dead_letter_stream"`
	StreamBlock       time.Duration `mapstructure:"stream_block"`
	StreamBackoff     time.Duration `mapstructure:"stream_backoff"`
	StreamRadius      float64       `mapstructure:"stream_radius"`
	StreamMaxAttempts int           `mapstructure:"stream_max_attempts"`
	CursorDB          string        `mapstructure:"cursor_db"`

	APIPort    int           `mapstructure:"api_port"`
	APITimeout time.Duration `mapstructure:"api_timeout"`

	LogLevel      int    `mapstructure:"log_level"`
	LogTimeFormat string `mapstructure:"log_time_format"`
	ServiceName   string `mapstructure:"service_name"`

	CategoryRules []osmload.CategoryRule `mapstructure:"-"`
}

// New loads .env, then config.yaml from the working directory when present, then the
// environment, and validates the result.
func New() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("OSM_FILE", "")
	v.SetDefault("BOUNDARY_DIR", "geo_files")
	v.SetDefault("DISTRICT_NAME_PROPERTY", "name:ru")
	v.SetDefault("PRELOAD_CITIES", []string{})
	v.SetDefault("SHOW_PROGRESS", false)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RAW_STREAM", "raw_posts")
	v.SetDefault("READY_STREAM", "geo_ready_posts")
	v.SetDefault("DEAD_LETTER_STREAM", "geo_dead_posts")
	v.SetDefault("STREAM_BLOCK", "5s")
	v.SetDefault("STREAM_BACKOFF", "1s")
	v.SetDefault("STREAM_RADIUS", 500)
	v.SetDefault("STREAM_MAX_ATTEMPTS", 0)
	v.SetDefault("CURSOR_DB", "cursor.db")
	v.SetDefault("API_PORT", 6060)
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", logconfig.INFO_LEVEL)
	v.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)
	v.SetDefault("SERVICE_NAME", "")
	v.SetDefault("CITY_OBJECTS", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	rules, err := categoryRules(v)
	if err != nil {
		return nil, err
	}
	cfg.CategoryRules = rules

	return cfg, nil
}

// categoryRules reads CITY_OBJECTS: a yaml mapping in config.yaml, or a JSON object in the
// environment. Unset means the default rules.
func categoryRules(v *viper.Viper) ([]osmload.CategoryRule, error) {
	objects := map[string]osmload.TagRule{}

	switch raw := v.Get("CITY_OBJECTS").(type) {
	case string:
		if strings.TrimSpace(raw) == "" {
			return osmload.DefaultCategoryRules(), nil
		}
		if err := json.Unmarshal([]byte(raw), &objects); err != nil {
			return nil, pkg.WrapErrorf(err, pkg.ErrBadParamInput, "config: CITY_OBJECTS must be a JSON object")
		}
	default:
		if err := v.UnmarshalKey("CITY_OBJECTS", &objects); err != nil {
			return nil, pkg.WrapErrorf(err, pkg.ErrBadParamInput, "config: CITY_OBJECTS")
		}
	}

	if len(objects) == 0 {
		return osmload.DefaultCategoryRules(), nil
	}
	return osmload.RulesFromMap(objects)
}

// Validate checks what every command needs.
func (c *Config) Validate() error {
	if c.OSMFile == "" {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "config: OSM_FILE is required")
	}
	if c.StreamRadius <= 0 {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "config: STREAM_RADIUS must be positive, got %v", c.StreamRadius)
	}
	if c.StreamBlock <= 0 {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "config: STREAM_BLOCK must be positive, got %v", c.StreamBlock)
	}
	if c.StreamMaxAttempts < 0 {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "config: STREAM_MAX_ATTEMPTS must not be negative")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return pkg.WrapErrorf(nil, pkg.ErrBadParamInput, "config: API_PORT out of range: %d", c.APIPort)
	}
	return nil
}

func (c *Config) Logger() logconfig.Configuration {
	return logconfig.Configuration{
		Level:       c.LogLevel,
		TimeFormat:  c.LogTimeFormat,
		ServiceName: c.ServiceName,
	}
}
