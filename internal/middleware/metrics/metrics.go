// Package metrics records per-route request counts and latencies. It must be
// installed with mux.Router.Use so the matched route is known.
package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	appmetrics "expensedash/internal/metrics"
	"expensedash/internal/middleware/trace"
)

const unmatchedRoute = "unmatched"

// Middleware observes every request that reaches the router.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &trace.ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := routeName(r)
		appmetrics.HTTPRequests.WithLabelValues(route, r.Method, appmetrics.StatusClass(rw.StatusCode)).Inc()
		appmetrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routeName uses the path template so ids do not explode label cardinality.
func routeName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}
