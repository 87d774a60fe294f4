package rediskeys

import (
	"context"
	"time"

	"github.com/signalfx/redis-keys-agent/internal/core/selfmetrics"
	log "github.com/sirupsen/logrus"
)

// Failure reasons recorded in the internal metrics
const (
	reasonConnection    = "connection"
	reasonEmptyResult   = "empty_result"
	reasonFieldNotFound = "field_not_found"
	reasonNotNumeric    = "not_numeric"
	reasonResolve       = "resolve"
	reasonWrite         = "write"
	reasonNegative      = "negative_counter"
)

// Poller runs poll cycles over every target of a registry.  It is not safe
// to run more than one cycle of the same Poller at a time.
type Poller struct {
	registry   *Registry
	dial       Dialer
	dispatcher *Dispatcher
	metrics    *selfmetrics.Metrics
	logger     log.FieldLogger
}

// NewPoller creates a poller.  metrics may be nil.
func NewPoller(registry *Registry, dial Dialer, dispatcher *Dispatcher, metrics *selfmetrics.Metrics, logger log.FieldLogger) *Poller {
	if logger == nil {
		logger = log.WithFields(log.Fields{"monitorType": monitorType})
	}
	if dial == nil {
		dial = DialTarget
	}
	return &Poller{
		registry:   registry,
		dial:       dial,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// RunPollCycle polls every registered target once.  A failing target is
// logged and skipped; it never prevents the other targets from being polled.
func (p *Poller) RunPollCycle(ctx context.Context) {
	start := time.Now()

	for _, tc := range p.registry.Targets() {
		if err := p.pollTarget(ctx, tc); err != nil {
			p.logger.WithError(err).WithField("target", tc.Label()).Error("Could not poll redis target")
		}
	}

	if err := p.dispatcher.Flush(); err != nil {
		p.logger.WithError(err).Error("Could not flush values")
	}
	p.metrics.CycleCompleted(time.Since(start))
}

func (p *Poller) pollTarget(ctx context.Context, tc *TargetConfig) error {
	client := p.dial(tc)
	defer func() {
		if err := client.Close(); err != nil {
			p.logger.WithError(err).WithField("target", tc.Label()).Debug("Error closing redis client")
		}
	}()

	info, err := client.Info(ctx)
	if err != nil {
		p.metrics.TargetFailed(tc.Label(), reasonConnection)
		return &ConnectionError{Target: tc.Addr(), Err: err}
	}
	if len(info) == 0 {
		p.metrics.TargetFailed(tc.Label(), reasonEmptyResult)
		return &EmptyResultError{Target: tc.Addr()}
	}

	label := tc.Label()
	logger := p.logger.WithField("target", label)

	for _, spec := range tc.InfoMetrics.All() {
		raw, ok := info[spec.Name]
		if !ok {
			logger.WithError(&FieldNotFoundError{Field: spec.Name}).Warn("Skipping info metric")
			p.metrics.MetricFailed(label, reasonFieldNotFound)
			continue
		}

		value, err := ParseNumber(raw)
		if err != nil {
			logger.WithError(err).WithField("field", spec.Name).Error("Could not convert info value")
			p.metrics.MetricFailed(label, reasonNotNumeric)
			continue
		}

		reportingType, displayName := spec.infoDisplay()
		p.emit(ctx, tc, ResolvedMetric{
			DisplayName:   displayName,
			ReportingType: reportingType,
			Value:         value,
			Target:        label,
		})
	}

	for _, spec := range tc.KeyMetrics.All() {
		value, err := p.keyValue(ctx, client, tc, spec.Name)
		if err != nil {
			logger.WithError(err).WithField("key", spec.Name).Error("Could not get key metric")
			continue
		}

		p.emit(ctx, tc, ResolvedMetric{
			DisplayName:   spec.DisplayName(),
			ReportingType: spec.ReportingType,
			Value:         value,
			Target:        label,
		})
	}

	return nil
}

// keyValue measures a key, substituting the target's missing key value for
// keys that do not exist.
func (p *Poller) keyValue(ctx context.Context, client Client, tc *TargetConfig, key string) (Number, error) {
	res, err := Resolve(ctx, client, key)
	if err != nil {
		p.metrics.MetricFailed(tc.Label(), reasonResolve)
		return Number{}, err
	}

	if res.Missing() {
		if tc.Verbose {
			p.logger.WithField("target", tc.Label()).Infof("Key %s is missing, using %d", key, tc.MissingKeyValue)
		}
		return IntNumber(tc.MissingKeyValue), nil
	}

	value, err := res.Number()
	if err != nil {
		p.metrics.MetricFailed(tc.Label(), reasonNotNumeric)
		return Number{}, err
	}
	return value, nil
}

func (p *Poller) emit(ctx context.Context, tc *TargetConfig, m ResolvedMetric) {
	if err := p.dispatcher.Emit(ctx, m, tc.Verbose); err != nil {
		if _, ok := err.(*NegativeCounterError); ok {
			p.logger.WithError(err).WithField("target", m.Target).Warn("Skipping value")
			p.metrics.MetricFailed(m.Target, reasonNegative)
			return
		}
		p.logger.WithError(err).WithField("target", m.Target).Error("Could not dispatch value")
		p.metrics.MetricFailed(m.Target, reasonWrite)
		return
	}
	p.metrics.MetricDispatched(m.Target)
}
