package http

import (
	"context"
	"time"

	http_router "github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router"
	"github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router/controllers"
	http_server "github.com/lintang-b-s/osm-geoenrich/pkg/http/server"
	"github.com/lintang-b-s/osm-geoenrich/pkg/metrics"

	"go.uber.org/zap"
)

type Server struct {
	Log        *zap.Logger
	config     http_server.Config
	geoService controllers.GeoService
	collector  *metrics.Collector
}

func NewServer(log *zap.Logger, port int, timeout time.Duration,
	geoService controllers.GeoService, collector *metrics.Collector) *Server {
	return &Server{
		Log: log,
		config: http_server.Config{
			Port:    port,
			Timeout: timeout,
		},
		geoService: geoService,
		collector:  collector,
	}
}

// Run blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	return http_router.NewAPI(s.Log).Run(ctx, s.config, s.geoService, s.collector)
}
