// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus counters for HTTP traffic and
// thread actions on a private registry served at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds every collector of this package plus the Go runtime ones.
var Registry = prometheus.NewRegistry()

var (
	requests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "discuss",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})

	requestSeconds = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "discuss",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	actions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "discuss",
		Name:      "thread_actions_total",
		Help:      "Applied thread actions by endpoint and method.",
	}, []string{"endpoint", "method"})
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
}

// ObserveRequest records one finished request
func ObserveRequest(method, route string, code int, seconds float64) {
	requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	requestSeconds.WithLabelValues(method, route).Observe(seconds)
}

// ObserveAction records one applied thread action (vote, hide, pin)
func ObserveAction(endpoint, method string) {
	actions.WithLabelValues(endpoint, method).Inc()
}

// ActionCount returns the current value of the action counter, for tests
func ActionCount(endpoint, method string) float64 {
	c, err := actions.GetMetricWithLabelValues(endpoint, method)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
