// Package metrics exposes Prometheus metrics for CSMS API calls.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const metricsNamespace = "csms"

// Collector is a prometheus.Collector that collects metrics about
// calls to the CSMS API, from either the client or the server side.
type Collector struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewCollector returns a new Collector for the given subsystem, usually
// "client" or "server".
func NewCollector(subsystem string) *Collector {
	return &Collector{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "calls_total",
				Help:      "The number of completed API calls by method and status code.",
			}, []string{"method", "code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "call_duration_seconds",
				Help:      "The time taken to complete an API call.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			}, []string{"method"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "calls_in_flight",
				Help:      "The number of API calls awaiting completion.",
			}, []string{"method"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.calls.Describe(ch)
	c.latency.Describe(ch)
	c.inFlight.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.calls.Collect(ch)
	c.latency.Collect(ch)
	c.inFlight.Collect(ch)
}

// Begin records the start of a call and returns the function that records
// its completion. The returned function must be called exactly once.
func (c *Collector) Begin(method string) func(err error) {
	start := time.Now()
	c.inFlight.WithLabelValues(method).Inc()
	return func(err error) {
		c.inFlight.WithLabelValues(method).Dec()
		c.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		c.calls.WithLabelValues(method, status.Code(err).String()).Inc()
	}
}

// UnaryServerInterceptor records every call handled by a gRPC server.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		done := c.Begin(shortMethod(info.FullMethod))
		resp, err := handler(ctx, req)
		done(err)
		return resp, err
	}
}

// UnaryClientInterceptor records every call issued on a client connection.
func (c *Collector) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		done := c.Begin(shortMethod(method))
		err := invoker(ctx, method, req, reply, cc, opts...)
		done(err)
		return err
	}
}

// shortMethod strips the service path from "/pkg.Service/Method".
func shortMethod(fullMethod string) string {
	for i := len(fullMethod) - 1; i >= 0; i-- {
		if fullMethod[i] == '/' {
			return fullMethod[i+1:]
		}
	}
	return fullMethod
}

var _ prometheus.Collector = (*Collector)(nil)
