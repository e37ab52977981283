package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/tradecore/encoding/json"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/metrics"
	"github.com/thrasher-corp/tradecore/order"
)

const shutdownTimeout = 5 * time.Second

// RESTLogger logs each request with the route name and duration
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.Server,
			"%s\t%s\t%s\t%s",
			r.Method,
			r.RequestURI,
			name,
			time.Since(start),
		)
	})
}

// newRouter returns the status server routes
func (e *Engine) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Status", http.MethodGet, "/status", e.getStatus},
		{"Metrics", http.MethodGet, "/metrics", metrics.Handler().ServeHTTP},
		{"Health", http.MethodGet, "/healthz", getHealth},
	}
	for _, route := range routes {
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(RESTLogger(route.HandlerFunc, route.Name))
	}
	return router
}

func (e *Engine) startServer() {
	log.Infof(log.Server, "status server listening on http://%s", e.server.Addr)
	go func() {
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(log.Server, "status server: %v", err)
		}
	}()
}

func (e *Engine) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		log.Errorf(log.Server, "status server shutdown: %v", err)
	}
}

// publishStatus copies loop state for the status server
func (e *Engine) publishStatus() {
	open := e.broker.OpenOrders()
	s := Status{
		Name:       e.cfg.Name,
		Live:       e.live,
		Updated:    e.now(),
		Portfolio:  e.portfolio.Snapshot(),
		OpenOrders: make([]order.Order, len(open)),
		Finished:   make([]market.Asset, 0, len(e.finished)),
	}
	for i := range open {
		s.OpenOrders[i] = *open[i]
	}
	for _, a := range e.feed.Assets() {
		if e.finished[a] {
			s.Finished = append(s.Finished, a)
		}
	}
	e.status.m.Lock()
	e.status.status = s
	e.status.m.Unlock()
}

// Status returns the last published loop status
func (e *Engine) Status() Status {
	e.status.m.RLock()
	defer e.status.m.RUnlock()
	return e.status.status
}

func (e *Engine) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, e.Status())
}

func getHealth(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, map[string]string{"status": "ok"})
}

func writeResponse(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf(log.Server, "encoding response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
