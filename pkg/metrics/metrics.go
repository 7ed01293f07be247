// Package metrics holds the prometheus collectors exported by the comment service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry        *prometheus.Registry
	HTTPRequests    *prometheus.CounterVec
	CommentsCreated *prometheus.CounterVec
	Upvotes         prometheus.Counter
	CommentsDeleted prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discuss_http_requests_total",
			Help: "HTTP requests handled, by method, route and status.",
		}, []string{"method", "path", "status"}),
		CommentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discuss_comments_created_total",
			Help: "Comments created, split into top-level comments and replies.",
		}, []string{"kind"}),
		Upvotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "discuss_comment_upvotes_total",
			Help: "Upvote clicks accepted.",
		}),
		CommentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "discuss_comments_deleted_total",
			Help: "Comments removed, including replies removed with their parent.",
		}),
	}
	m.Registry.MustRegister(m.HTTPRequests, m.CommentsCreated, m.Upvotes, m.CommentsDeleted)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
