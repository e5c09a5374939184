package http_router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router/controllers"
	router_helper "github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router/router-helper"
	http_server "github.com/lintang-b-s/osm-geoenrich/pkg/http/server"
	"github.com/lintang-b-s/osm-geoenrich/pkg/metrics"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	log *zap.Logger
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

// Handler builds the routes and the middleware chain. collector may be nil.
func (api *API) Handler(geoService controllers.GeoService, collector *metrics.Collector) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "the requested resource could not be found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("the %s method is not supported for this resource", r.Method))
	})

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore

	})

	var observer router_helper.RouteObserver
	if collector != nil {
		observer = collector
		router.Handler(http.MethodGet, "/metrics", collector.Handler())
	}

	group := router_helper.NewRouteGroup(router, "", observer)

	geoRoutes := controllers.New(geoService, api.log)

	geoRoutes.Routes(group)

	return alice.New(corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log), Labels).Then(router)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	geoService controllers.GeoService,
	collector *metrics.Collector,
) error {
	api.log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(geoService, collector), config)

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownErr
	api.log.Info("API stopped")
	return err
}
