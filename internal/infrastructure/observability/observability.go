// Package observability bundles the tracer, logger and metric instruments the
// use cases receive as one observability.Observability.
package observability

import (
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
)

type Option func(*provider)

func WithTracer(t observability.Tracer) Option {
	return func(p *provider) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(p *provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInstruments registers prebuilt instruments. Nil entries are skipped and
// unknown keys resolve to no-ops, so a partially wired process still runs.
func WithInstruments(
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) Option {
	return func(p *provider) {
		for k, c := range counters {
			if c != nil {
				p.metrics.counters[k] = c
			}
		}
		for k, h := range histograms {
			if h != nil {
				p.metrics.histograms[k] = h
			}
		}
	}
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics *instrumentSet
}

type instrumentSet struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (s *instrumentSet) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := s.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (s *instrumentSet) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := s.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// New starts from no-op parts and applies opts.
func New(opts ...Option) observability.Observability {
	p := &provider{
		tracer: observability.NopTracer(),
		logger: observability.NopLogger(),
		metrics: &instrumentSet{
			counters:   make(map[observability.MetricKey]observability.Counter),
			histograms: make(map[observability.MetricKey]observability.Histogram),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
