package rediskeys

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry holds every configured target.  Each call to Configure registers
// a new, independent target, even if it points at the same host and port as
// an existing one.
//
// By default every target only reports the metrics from its own block.  With
// shareMetricSpecs enabled, all targets report the union of the metric specs
// of all blocks, like the legacy collectd plugin.
type Registry struct {
	mu               sync.RWMutex
	targets          []*TargetConfig
	hashes           map[uint64]string
	shareMetricSpecs bool
	sharedInfo       *MetricSpecTable
	sharedKeys       *MetricSpecTable
	verbose          bool
	logger           log.FieldLogger
}

// NewRegistry creates an empty registry
func NewRegistry(shareMetricSpecs bool, logger log.FieldLogger) *Registry {
	if logger == nil {
		logger = log.WithFields(log.Fields{"monitorType": monitorType})
	}
	r := &Registry{
		shareMetricSpecs: shareMetricSpecs,
		logger:           logger,
	}
	r.reset()
	return r
}

// Configure ingests a single configuration block and registers the target it
// describes.  Warnings about individual directives are logged and returned,
// they never prevent the target from being registered.
func (r *Registry) Configure(block Block) (*TargetConfig, []error) {
	tc, warnings := parseBlock(block, r.logger)
	for _, w := range warnings {
		r.logger.WithError(w).Warn("Problem with redis_keys config")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.verbose = r.verbose || tc.Verbose

	if r.shareMetricSpecs {
		r.sharedInfo.Merge(tc.InfoMetrics)
		r.sharedKeys.Merge(tc.KeyMetrics)
	}

	hash := tc.Hash()
	if other, ok := r.hashes[hash]; ok && hash != 0 {
		r.logger.WithFields(log.Fields{
			"target": tc.Label(),
			"other":  other,
		}).Warn("Target is configured identically to another one, both will be polled")
	}
	r.hashes[hash] = tc.Label()

	r.targets = append(r.targets, tc)

	fields := log.Fields{
		"host":      tc.Host,
		"port":      tc.Port,
		"instance":  tc.Instance,
		"usingAuth": tc.Auth != "",
	}
	if r.verbose {
		r.logger.WithFields(fields).Info("Configured redis_keys target")
	} else {
		r.logger.WithFields(fields).Debug("Configured redis_keys target")
	}

	return tc, warnings
}

// Targets returns a snapshot of the registered targets that is safe to use
// while the registry is reconfigured.
func (r *Registry) Targets() []*TargetConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TargetConfig, len(r.targets))
	for i, tc := range r.targets {
		if r.shareMetricSpecs {
			out[i] = tc.withTables(r.sharedInfo.Copy(), r.sharedKeys.Copy())
		} else {
			out[i] = tc
		}
	}
	return out
}

// Len is the number of registered targets
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Verbose is true if any configured block enabled verbose logging
func (r *Registry) Verbose() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.verbose
}

// Reset removes every target and shared metric spec so that the registry can
// be configured from scratch.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func (r *Registry) reset() {
	r.targets = nil
	r.hashes = map[uint64]string{}
	r.sharedInfo = NewMetricSpecTable()
	r.sharedKeys = NewMetricSpecTable()
	r.verbose = false
}
