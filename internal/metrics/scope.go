// Package metrics is a small prometheus wrapper grounded on
// letsencrypt-boulder/metrics/scope.go's Scope interface: a stats
// collector that prefixes every stat name with its scope path, so the
// HTTP handler, status resolver, and CRL builder can each get a
// differently-prefixed view of the same registry.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scope is a stats collector prefixed by its scope path.
type Scope interface {
	NewScope(scopes ...string) Scope
	Inc(stat string, value int64)
	TimingDuration(stat string, delta time.Duration)
	MustRegister(...prometheus.Collector)
}

type promScope struct {
	prefix     []string
	registerer prometheus.Registerer
	registry   *registry
}

// registry lazily creates and caches one collector per stat name, shared
// across all Scopes derived from the same root so NewScope calls don't
// double-register a metric with prometheus.
type registry struct {
	mu        sync.Mutex
	counters  map[string]*prometheus.CounterVec
	summaries map[string]prometheus.Summary
}

var _ Scope = &promScope{}

// NewPromScope returns a Scope backed by registerer, per boulder's
// NewPromScope.
func NewPromScope(registerer prometheus.Registerer, scopes ...string) Scope {
	return &promScope{
		prefix:     scopes,
		registerer: registerer,
		registry: &registry{
			counters:  make(map[string]*prometheus.CounterVec),
			summaries: make(map[string]prometheus.Summary),
		},
	}
}

func (s *promScope) NewScope(scopes ...string) Scope {
	return &promScope{
		prefix:     append(append([]string{}, s.prefix...), scopes...),
		registerer: s.registerer,
		registry:   s.registry,
	}
}

func (s *promScope) MustRegister(collectors ...prometheus.Collector) {
	s.registerer.MustRegister(collectors...)
}

func (s *promScope) Inc(stat string, value int64) {
	name := s.statName(stat)
	s.registry.mu.Lock()
	c, ok := s.registry.counters[name]
	if !ok {
		c = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, nil)
		s.registerer.MustRegister(c)
		s.registry.counters[name] = c
	}
	s.registry.mu.Unlock()
	c.WithLabelValues().Add(float64(value))
}

func (s *promScope) TimingDuration(stat string, delta time.Duration) {
	name := s.statName(stat) + "_seconds"
	s.registry.mu.Lock()
	sum, ok := s.registry.summaries[name]
	if !ok {
		sum = prometheus.NewSummary(prometheus.SummaryOpts{Name: name})
		s.registerer.MustRegister(sum)
		s.registry.summaries[name] = sum
	}
	s.registry.mu.Unlock()
	sum.Observe(delta.Seconds())
}

func (s *promScope) statName(stat string) string {
	if len(s.prefix) > 0 {
		return strings.Join(s.prefix, "_") + "_" + stat
	}
	return stat
}

// noopScope discards everything, used in tests that don't care about
// metrics wiring.
type noopScope struct{}

// NewNoopScope returns a Scope that collects nothing.
func NewNoopScope() Scope { return noopScope{} }

func (noopScope) NewScope(scopes ...string) Scope             { return noopScope{} }
func (noopScope) Inc(stat string, value int64)                {}
func (noopScope) TimingDuration(stat string, delta time.Duration) {}
func (noopScope) MustRegister(...prometheus.Collector)        {}
