//go:build wireinject

//go:generate wire
package di

import (
	"context"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	geodata_di "github.com/lintang-b-s/osm-geoenrich/pkg/di/geodata"
	kv_di "github.com/lintang-b-s/osm-geoenrich/pkg/di/kv"
	logger_di "github.com/lintang-b-s/osm-geoenrich/pkg/di/logger"
	redis_di "github.com/lintang-b-s/osm-geoenrich/pkg/di/redis"

	"github.com/google/wire"
)

var defaultSet = wire.NewSet(
	config.New,
	logger_di.New,
)

var geoSet = wire.NewSet(
	geodata_di.NewPOIStore,
	geodata_di.NewFinder,
	geodata_di.NewDistrictIndex,
	geodata_di.NewEngine,
)

var appSet = wire.NewSet(
	defaultSet,
	geoSet,
	kv_di.New,
	redis_di.New,
	NewCollector,
	NewGeoService,
	NewAPIServer,
	NewPipeline,
	NewApp,
)

func InitializeApp(ctx context.Context) (*App, func(), error) {

	panic(wire.Build(appSet))
}

func InitializeInspection(ctx context.Context) (*Inspection, func(), error) {

	panic(wire.Build(defaultSet, geodata_di.NewPOIStore, NewInspection))
}
