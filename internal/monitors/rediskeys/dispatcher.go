package rediskeys

import (
	"context"
	"strings"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// The collectd plugin name all values are reported under
const pluginName = "redis_keys"

// ResolvedMetric is a value ready to be dispatched
type ResolvedMetric struct {
	DisplayName   string
	ReportingType string
	Value         Number
	Target        string
}

// Flusher is implemented by sinks that buffer values
type Flusher interface {
	Flush() error
}

// Dispatcher packages resolved metrics into collectd value lists and hands
// them to the sink.
type Dispatcher struct {
	sink     api.Writer
	host     string
	interval time.Duration
	logger   log.FieldLogger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher that writes to sink.  host is the
// collectd host of every value list.
func NewDispatcher(sink api.Writer, host string, interval time.Duration, logger log.FieldLogger) *Dispatcher {
	if logger == nil {
		logger = log.WithFields(log.Fields{"monitorType": monitorType})
	}
	return &Dispatcher{
		sink:     sink,
		host:     host,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Emit sends a single metric to the sink.
func (d *Dispatcher) Emit(ctx context.Context, m ResolvedMetric, verbose bool) error {
	if verbose {
		d.logger.WithField("target", m.Target).Infof("Sending value: %s=%s", m.DisplayName, m.Value)
	}

	value, ok := valueFor(m.ReportingType, m.Value)
	if !ok {
		return &NegativeCounterError{Name: m.DisplayName, Value: m.Value}
	}

	vl := &api.ValueList{
		Identifier: api.Identifier{
			Host:           d.host,
			Plugin:         pluginName,
			PluginInstance: m.Target,
			Type:           m.ReportingType,
			TypeInstance:   m.DisplayName,
		},
		Time:     d.now(),
		Interval: d.interval,
		Values:   []api.Value{value},
	}

	if err := d.sink.Write(ctx, vl); err != nil {
		return errors.Wrapf(err, "could not write %s", vl.Identifier)
	}
	return nil
}

// Flush flushes the sink if it buffers values
func (d *Dispatcher) Flush() error {
	if f, ok := d.sink.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// valueFor normalizes a number into the collectd value kind of the reporting
// type.  Only the basic data source types are distinguished, every other type
// (bytes, percent, ...) is a gauge in types.db.  Negative counters have no
// representation and are rejected.
func valueFor(reportingType string, n Number) (api.Value, bool) {
	switch strings.ToLower(reportingType) {
	case "counter":
		if n.Int64() < 0 {
			return nil, false
		}
		return api.Counter(uint64(n.Int64())), true
	case "derive", "absolute":
		return api.Derive(n.Int64()), true
	default:
		return api.Gauge(n.Float64()), true
	}
}
