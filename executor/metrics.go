package executor

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/tx"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultError   = "error"
)

// Metrics holds the Prometheus collectors updated by an instrumented executor.
type Metrics struct {
	commits  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the transaction collectors and registers them on reg.
// A nil reg means prometheus.DefaultRegisterer. Collectors already registered
// by a previous call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jetcd",
				Subsystem: "txn",
				Name:      "commits_total",
				Help:      "Committed transactions by outcome (success, failure branch, error).",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jetcd",
				Subsystem: "txn",
				Name:      "commit_duration_seconds",
				Help:      "Duration of the store round trip of a committed transaction.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"result"},
		),
	}

	if err := registerOrReuseCounterVec(reg, &m.commits); err != nil {
		return nil, errors.Wrap(err, "register commits counter")
	}

	if err := registerOrReuseHistogramVec(reg, &m.duration); err != nil {
		return nil, errors.Wrap(err, "register commit duration histogram")
	}

	return m, nil
}

func registerOrReuseCounterVec(reg prometheus.Registerer, c **prometheus.CounterVec) error {
	if err := reg.Register(*c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return errors.WithStack(err)
		}

		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return errors.Newf("collector type mismatch for %T", *c)
		}

		*c = existing
	}

	return nil
}

func registerOrReuseHistogramVec(reg prometheus.Registerer, c **prometheus.HistogramVec) error {
	if err := reg.Register(*c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return errors.WithStack(err)
		}

		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return errors.Newf("collector type mismatch for %T", *c)
		}

		*c = existing
	}

	return nil
}

func (m *Metrics) observe(resp tx.Response, err error, elapsed time.Duration) {
	result := resultError

	switch {
	case err != nil:
	case resp.Succeeded:
		result = resultSuccess
	default:
		result = resultFailure
	}

	m.commits.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

type instrumented struct {
	next    Executor
	metrics *Metrics
	logger  *zap.Logger
}

// Instrumented wraps next so that every round trip is counted, timed and logged.
// A nil metrics disables the collectors, a nil logger disables logging.
func Instrumented(next Executor, metrics *Metrics, logger *zap.Logger) Executor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &instrumented{
		next:    next,
		metrics: metrics,
		logger:  logger,
	}
}

func (e *instrumented) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	start := time.Now()

	resp, err := e.next.Execute(ctx, desc)

	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.observe(resp, err, elapsed)
	}

	if err != nil {
		e.logger.Warn("transaction round trip failed",
			zap.Int("predicates", len(desc.Predicates())),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		return resp, err
	}

	e.logger.Debug("transaction applied",
		zap.Bool("succeeded", resp.Succeeded),
		zap.Int64("revision", resp.Revision),
		zap.Int("results", len(resp.Results)),
		zap.Duration("elapsed", elapsed))

	return resp, nil
}
