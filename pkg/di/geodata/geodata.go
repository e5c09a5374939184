package geodata_di

import (
	"context"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	"github.com/lintang-b-s/osm-geoenrich/pkg/district"
	"github.com/lintang-b-s/osm-geoenrich/pkg/enrich"
	"github.com/lintang-b-s/osm-geoenrich/pkg/osmload"
	"github.com/lintang-b-s/osm-geoenrich/pkg/proximity"

	"go.uber.org/zap"
)

// NewPOIStore loads the extract once. The process cannot serve without it.
func NewPOIStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (osmload.POIStore, error) {
	loader := osmload.NewLoader(log, cfg.CategoryRules, cfg.ShowProgress)
	return loader.Load(ctx, cfg.OSMFile)
}

func NewFinder(store osmload.POIStore, log *zap.Logger) *proximity.Finder {
	finder := proximity.NewFinder(store)
	log.Info("proximity index built", zap.Any("records", finder.Categories()))
	return finder
}

const preloadWorkers = 4

// NewDistrictIndex warms PRELOAD_CITIES. A city that fails to load stays lazy and
// reports its error on the first query.
func NewDistrictIndex(ctx context.Context, cfg *config.Config, log *zap.Logger) *district.Index {
	idx := district.NewIndex(log, cfg.BoundaryDir, cfg.DistrictNameProperty)
	if len(cfg.PreloadCities) == 0 {
		return idx
	}
	if err := idx.Preload(ctx, cfg.PreloadCities, preloadWorkers); err != nil {
		log.Warn("district boundary preload incomplete", zap.Error(err))
	}
	log.Info("district boundaries preloaded", zap.Strings("cities", idx.Cities()))
	return idx
}

func NewEngine(districts *district.Index, finder *proximity.Finder) *enrich.Engine {
	return enrich.NewEngine(districts, finder)
}
