package http_server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

type Config struct {
	Port    int
	Timeout time.Duration
}

// New binds handler to config.Port. Request contexts derive from ctx.
func New(ctx context.Context, handler http.Handler, config Config) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           http.TimeoutHandler(handler, config.Timeout, `{"error":{"code":"TIMEOUT","message":"request timed out"}}`),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.Timeout,
		WriteTimeout:      config.Timeout + time.Second,
		IdleTimeout:       2 * config.Timeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
