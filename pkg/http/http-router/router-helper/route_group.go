package router_helper

import (
	"net/http"
	"path"
	"time"

	"github.com/julienschmidt/httprouter"
)

// RouteObserver is told about every request served through a RouteGroup.
type RouteObserver interface {
	ObserveHTTP(route string, status int, d time.Duration)
}

// RouteGroup registers handlers on a shared httprouter under a common prefix.
type RouteGroup struct {
	r        *httprouter.Router
	p        string
	observer RouteObserver
}

func NewRouteGroup(r *httprouter.Router, p string, observer RouteObserver) *RouteGroup {
	return &RouteGroup{r: r, p: p, observer: observer}
}

func (g *RouteGroup) Group(p string) *RouteGroup {
	return &RouteGroup{r: g.r, p: g.path(p), observer: g.observer}
}

func (g *RouteGroup) GET(p string, handle httprouter.Handle) {
	g.Handle(http.MethodGet, p, handle)
}

func (g *RouteGroup) POST(p string, handle httprouter.Handle) {
	g.Handle(http.MethodPost, p, handle)
}

func (g *RouteGroup) Handle(method, p string, handle httprouter.Handle) {
	route := g.path(p)
	if g.observer == nil {
		g.r.Handle(method, route, handle)
		return
	}

	g.r.Handle(method, route, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		handle(sw, r, ps)
		g.observer.ObserveHTTP(route, sw.status, time.Since(start))
	})
}

func (g *RouteGroup) path(p string) string {
	if p == "" || p == "/" {
		if g.p == "" {
			return "/"
		}
		return g.p
	}
	return path.Join("/", g.p, p)
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
