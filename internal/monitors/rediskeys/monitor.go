package rediskeys

import (
	"context"
	"sync"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/redis-keys-agent/internal/core/selfmetrics"
	"github.com/signalfx/redis-keys-agent/internal/utils"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

const monitorType = "redis_keys"

// MONITOR(redis_keys): Polls Redis instances for INFO fields and key sizes.
//
// Every entry under `targets` configures one Redis instance with collectd
// style directives.  `Redis_<field>` reports an INFO field and `Key_<name>`
// reports the size of a key (the length of lists and streams, the number of
// fields of hashes, the cardinality of sets and sorted sets, or the value of
// numeric strings).  The value of both is the collectd type to report as,
// optionally followed by an alias to report the value under.
//
// Sample YAML configuration:
//
// ```yaml
// redisKeys:
//   targets:
//   - Host: 127.0.0.1
//     Port: 6379
//     Instance: cache
//     Redis_used_memory: bytes
//     Redis_total_commands_processed: counter
//     Key_celery: [gauge, celery_queue_length]
// ```

// Config for the redis_keys monitor
type Config struct {
	// How often to poll every target.  Defaults to the top level
	// intervalSeconds.
	IntervalSeconds int `yaml:"intervalSeconds" validate:"min=0"`
	// If true, every target reports the metrics configured on any target
	// instead of only its own.
	ShareMetricSpecs bool `yaml:"shareMetricSpecs" default:"false"`
	// A list of target configuration blocks
	Targets []yaml.MapSlice `yaml:"targets" validate:"required,min=1"`
}

// Monitor schedules the poll cycles
type Monitor struct {
	// Where values are written
	Output api.Writer
	// The collectd host of every value
	Hostname string
	// Optional internal metrics
	Metrics *selfmetrics.Metrics
	// How to connect to targets, defaults to DialTarget
	Dial Dialer

	// Held for the duration of a poll cycle and of a reload
	mu       sync.Mutex
	registry *Registry
	poller   *Poller
	interval time.Duration
	cancel   func()
	logger   log.FieldLogger
}

// Configure ingests every target block and starts polling
func (m *Monitor) Configure(conf *Config) error {
	m.logger = log.WithFields(log.Fields{"monitorType": monitorType})

	if m.Output == nil {
		return errors.New("no output configured for redis_keys")
	}
	blocks, err := targetBlocks(conf)
	if err != nil {
		return err
	}

	m.registry = NewRegistry(conf.ShareMetricSpecs, m.logger)
	m.configureTargets(blocks)
	m.schedule(time.Duration(conf.IntervalSeconds) * time.Second)
	return nil
}

// Reload replaces every target with the ones in conf without restarting the
// monitor.  A poll cycle in progress finishes with the old targets first.  If
// conf cannot be used the current targets are kept.
func (m *Monitor) Reload(conf *Config) error {
	if m.registry == nil {
		return errors.New("redis_keys monitor is not configured")
	}
	blocks, err := targetBlocks(conf)
	if err != nil {
		return err
	}

	if conf.ShareMetricSpecs != m.registry.shareMetricSpecs {
		m.logger.Warn("Changing shareMetricSpecs requires a restart, keeping the current setting")
	}

	m.mu.Lock()
	m.registry.Reset()
	m.configureTargets(blocks)
	m.mu.Unlock()

	if interval := time.Duration(conf.IntervalSeconds) * time.Second; interval != m.interval {
		m.logger.Infof("Poll interval changed from %s to %s", m.interval, interval)
		m.Shutdown()
		m.schedule(interval)
	}
	return nil
}

func targetBlocks(conf *Config) ([]Block, error) {
	if conf.IntervalSeconds <= 0 {
		return nil, errors.Errorf("invalid interval %d", conf.IntervalSeconds)
	}
	blocks := make([]Block, 0, len(conf.Targets))
	for i := range conf.Targets {
		block, err := BlockFromMapSlice(conf.Targets[i])
		if err != nil {
			return nil, errors.Wrapf(err, "target %d", i)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (m *Monitor) configureTargets(blocks []Block) {
	for _, b := range blocks {
		m.registry.Configure(b)
	}

	fields := log.Fields{"targets": m.registry.Len()}
	if m.registry.Verbose() {
		m.logger.WithFields(fields).Info("Configured redis_keys targets")
	} else {
		m.logger.WithFields(fields).Debug("Configured redis_keys targets")
	}
}

// schedule starts polling every interval, the first cycle runs before it
// returns.
func (m *Monitor) schedule(interval time.Duration) {
	m.mu.Lock()
	m.interval = interval
	dispatcher := NewDispatcher(m.Output, m.Hostname, interval, m.logger)
	m.poller = NewPoller(m.registry, m.Dial, dispatcher, m.Metrics, m.logger)
	m.mu.Unlock()

	var ctx context.Context
	ctx, m.cancel = context.WithCancel(context.Background())

	utils.RunOnInterval(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.poller.RunPollCycle(ctx)
	}, interval)
}

// TargetStatuses describes the configured targets for the status server
func (m *Monitor) TargetStatuses() []selfmetrics.TargetStatus {
	if m.registry == nil {
		return nil
	}
	targets := m.registry.Targets()
	out := make([]selfmetrics.TargetStatus, 0, len(targets))
	for _, tc := range targets {
		out = append(out, selfmetrics.TargetStatus{
			Label:       tc.Label(),
			Host:        tc.Host,
			Port:        tc.Port,
			InfoMetrics: tc.InfoMetrics.Len(),
			KeyMetrics:  tc.KeyMetrics.Len(),
		})
	}
	return out
}

// Shutdown stops polling
func (m *Monitor) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
}
