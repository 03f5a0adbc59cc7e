package listset

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Instruments are the go-kit counters a Set reports to.
type Instruments struct {
	Inserts metrics.Counter
	Removes metrics.Counter
	Retries metrics.Counter
	Helps   metrics.Counter
}

// DiscardInstruments returns instruments that drop every observation.
func DiscardInstruments() Instruments {
	return Instruments{
		Inserts: discard.NewCounter(),
		Removes: discard.NewCounter(),
		Retries: discard.NewCounter(),
		Helps:   discard.NewCounter(),
	}
}

// NewPrometheusInstruments registers counters labelled by "variant" with the
// default Prometheus registry. Call it once per namespace and bind a variant
// with With.
func NewPrometheusInstruments(namespace string) Instruments {
	labels := []string{"variant"}
	return Instruments{
		Inserts: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "listset",
			Name:      "inserts_total",
			Help:      "Number of elements inserted.",
		}, labels),
		Removes: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "listset",
			Name:      "removes_total",
			Help:      "Number of elements removed.",
		}, labels),
		Retries: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "listset",
			Name:      "retries_total",
			Help:      "Number of failed validations or compare-and-swaps that forced a retry.",
		}, labels),
		Helps: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "listset",
			Name:      "helps_total",
			Help:      "Number of marked nodes unlinked by a traversal on behalf of a remover.",
		}, labels),
	}
}

// With returns instruments with the label values applied to every counter.
func (i Instruments) With(labelValues ...string) Instruments {
	i = i.orDiscard()
	return Instruments{
		Inserts: i.Inserts.With(labelValues...),
		Removes: i.Removes.With(labelValues...),
		Retries: i.Retries.With(labelValues...),
		Helps:   i.Helps.With(labelValues...),
	}
}

func (i Instruments) orDiscard() Instruments {
	if i.Inserts == nil {
		i.Inserts = discard.NewCounter()
	}
	if i.Removes == nil {
		i.Removes = discard.NewCounter()
	}
	if i.Retries == nil {
		i.Retries = discard.NewCounter()
	}
	if i.Helps == nil {
		i.Helps = discard.NewCounter()
	}
	return i
}
