package di

import (
	"context"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	"github.com/lintang-b-s/osm-geoenrich/pkg/enrich"
	geoHttp "github.com/lintang-b-s/osm-geoenrich/pkg/http"
	"github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router/controllers"
	"github.com/lintang-b-s/osm-geoenrich/pkg/http/usecases"
	"github.com/lintang-b-s/osm-geoenrich/pkg/metrics"
	"github.com/lintang-b-s/osm-geoenrich/pkg/osmload"
	"github.com/lintang-b-s/osm-geoenrich/pkg/stream"
	"github.com/lintang-b-s/osm-geoenrich/pkg/stream/redistream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App is the query server and the stream enricher sharing one enrichment engine.
type App struct {
	Log      *zap.Logger
	Server   *geoHttp.Server
	Pipeline *stream.Pipeline
}

func NewApp(log *zap.Logger, server *geoHttp.Server, pipeline *stream.Pipeline) *App {
	return &App{
		Log:      log,
		Server:   server,
		Pipeline: pipeline,
	}
}

// Run blocks until ctx is cancelled or either side fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	g.Go(func() error {
		return a.Pipeline.Run(gctx)
	})
	return g.Wait()
}

// Inspection is what the loader made of the extract.
type Inspection struct {
	OSMFile string
	Rules   []osmload.CategoryRule
	Counts  map[datastructure.Category]int
}

func NewInspection(cfg *config.Config, store osmload.POIStore) *Inspection {
	return &Inspection{
		OSMFile: cfg.OSMFile,
		Rules:   cfg.CategoryRules,
		Counts:  store.Counts(),
	}
}

func NewCollector() (*metrics.Collector, error) {
	return metrics.NewCollector(nil)
}

func NewGeoService(log *zap.Logger, engine *enrich.Engine) controllers.GeoService {
	return usecases.New(log, engine)
}

func NewAPIServer(log *zap.Logger, cfg *config.Config, geoService controllers.GeoService,
	collector *metrics.Collector) *geoHttp.Server {
	return geoHttp.NewServer(log, cfg.APIPort, cfg.APITimeout, geoService, collector)
}

func NewPipeline(log *zap.Logger, cfg *config.Config, client *redis.Client, cursors stream.CursorStore,
	engine *enrich.Engine, collector *metrics.Collector) *stream.Pipeline {
	source := redistream.NewSource(client, cfg.RawStream, cfg.StreamBlock)
	sink := redistream.NewSink(client, cfg.ReadyStream)

	opts := []stream.Option{stream.WithObserver(collector)}
	if cfg.StreamMaxAttempts > 0 {
		opts = append(opts, stream.WithDeadLetter(redistream.NewSink(client, cfg.DeadLetterStream)))
	}

	return stream.NewPipeline(log, source, sink, cursors, engine, stream.Config{
		Radius:      cfg.StreamRadius,
		Backoff:     cfg.StreamBackoff,
		MaxAttempts: cfg.StreamMaxAttempts,
	}, opts...)
}
