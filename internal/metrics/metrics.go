// Package metrics holds the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mailtemplate"

// Result labels
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultSkipped   = "skipped"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	rendersTotal    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	sendsTotal      *prometheus.CounterVec
	sendDuration    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	templatesLoaded prometheus.Gauge
}

// New creates the collectors and registers them with reg. Collectors that
// are already registered are reused. A nil reg means a fresh registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Template renders by template, language and result.",
		}, []string{"template", "language", "result"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a template.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"template"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Queue messages by outcome.",
		}, []string{"result"}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails handed to the mail provider by result.",
		}, []string{"provider", "result"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Latency of the mail provider call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		templatesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "templates_loaded",
			Help:      "Template documents in the store.",
		}),
	}

	var err error
	m.rendersTotal, err = register(reg, m.rendersTotal)
	if err != nil {
		return nil, err
	}
	m.renderDuration, err = register(reg, m.renderDuration)
	if err != nil {
		return nil, err
	}
	m.messagesTotal, err = register(reg, m.messagesTotal)
	if err != nil {
		return nil, err
	}
	m.sendsTotal, err = register(reg, m.sendsTotal)
	if err != nil {
		return nil, err
	}
	m.sendDuration, err = register(reg, m.sendDuration)
	if err != nil {
		return nil, err
	}
	m.httpRequests, err = register(reg, m.httpRequests)
	if err != nil {
		return nil, err
	}
	m.httpDuration, err = register(reg, m.httpDuration)
	if err != nil {
		return nil, err
	}
	m.templatesLoaded, err = register(reg, m.templatesLoaded)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRender(template, language string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.rendersTotal.WithLabelValues(template, language, result).Inc()
	m.renderDuration.WithLabelValues(template).Observe(took.Seconds())
}

func (m *Metrics) ObserveMessage(result string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSend(provider string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.sendsTotal.WithLabelValues(provider, result).Inc()
	m.sendDuration.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) SetTemplatesLoaded(n int) {
	if m == nil {
		return
	}
	m.templatesLoaded.Set(float64(n))
}
