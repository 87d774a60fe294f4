package rediskeys

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure"
	log "github.com/sirupsen/logrus"
)

const (
	defaultHost = "localhost"
	defaultPort = 6379
)

var metricDirectiveRE = regexp.MustCompile(`(?i)^(redis|key)_(.*)$`)

// TargetConfig is a single Redis instance to poll along with the metrics to
// collect from it.  It is built once from a configuration block and must not
// be modified afterwards.
type TargetConfig struct {
	Host string
	Port int
	// Password to use for authentication, never logged
	Auth string `json:"-"`
	// The plugin instance reported on every value.  (**default**: "{host}:{port}")
	Instance string
	// The value reported for configured keys that do not exist
	MissingKeyValue int64
	// Whether to log every value that gets dispatched for this target
	Verbose bool

	InfoMetrics *MetricSpecTable `json:"-"`
	KeyMetrics  *MetricSpecTable `json:"-"`
}

// Addr is the host:port pair of the target
func (tc *TargetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", tc.Host, tc.Port)
}

// Label is the effective plugin instance of the target
func (tc *TargetConfig) Label() string {
	if tc.Instance != "" {
		return tc.Instance
	}
	return tc.Addr()
}

// Hash calculates a hash of everything that identifies the target
func (tc *TargetConfig) Hash() uint64 {
	hash, err := hashstructure.Hash(struct {
		Host            string
		Port            int
		Instance        string
		MissingKeyValue int64
		InfoMetrics     []MetricSpec
		KeyMetrics      []MetricSpec
	}{tc.Host, tc.Port, tc.Instance, tc.MissingKeyValue, tc.InfoMetrics.All(), tc.KeyMetrics.All()}, nil)
	if err != nil {
		log.WithError(err).Error("Could not get hash of redis_keys target config")
		return 0
	}
	return hash
}

// withTables returns a shallow copy of the target that reports the given
// tables.
func (tc *TargetConfig) withTables(info, keys *MetricSpecTable) *TargetConfig {
	out := *tc
	out.InfoMetrics = info
	out.KeyMetrics = keys
	return &out
}

// parseBlock turns a block of directives into a target.  Problems with
// individual directives are returned as warnings and never stop the rest of
// the block from being processed.
func parseBlock(block Block, logger log.FieldLogger) (*TargetConfig, []error) {
	tc := &TargetConfig{
		Host:        defaultHost,
		Port:        defaultPort,
		InfoMetrics: NewMetricSpecTable(),
		KeyMetrics:  NewMetricSpecTable(),
	}
	var warnings []error

	for _, d := range block {
		key := strings.ToLower(d.Key)
		val := d.Value()
		logger.Debugf("Analyzing config %s key (value: %s)", key, val)

		switch key {
		case "host":
			tc.Host = val
		case "port":
			port, err := strconv.Atoi(val)
			if err != nil {
				warnings = append(warnings, &InvalidDirectiveError{Key: d.Key, Value: val, Err: err})
				continue
			}
			tc.Port = port
		case "auth":
			tc.Auth = val
		case "instance":
			tc.Instance = val
		case "verbose":
			verbose, err := strconv.ParseBool(val)
			if err != nil {
				warnings = append(warnings, &InvalidDirectiveError{Key: d.Key, Value: val, Err: err})
				continue
			}
			tc.Verbose = tc.Verbose || verbose
		case "missing_key_value":
			mkv, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err != nil {
				warnings = append(warnings, &InvalidDirectiveError{Key: d.Key, Value: val, Err: err})
				continue
			}
			tc.MissingKeyValue = mkv
		default:
			// Use the original casing for the name since Redis keys are case
			// sensitive.
			m := metricDirectiveRE.FindStringSubmatch(d.Key)
			if m == nil {
				warnings = append(warnings, &UnknownDirectiveError{Key: d.Key})
				continue
			}
			if m[2] == "" {
				warnings = append(warnings, &InvalidDirectiveError{Key: d.Key, Value: val, Err: errEmptyMetricName})
				continue
			}

			spec := MetricSpec{Name: m[2], ReportingType: val}
			if len(d.Values) > 1 {
				spec.Alias = d.Values[1]
			}

			table := tc.KeyMetrics
			if strings.EqualFold(m[1], "redis") {
				table = tc.InfoMetrics
			}
			if prev, ok := table.Get(spec.Name); ok {
				logger.Infof("%s overrides earlier %s directive (type: %s)", d.Key, prev.Name, prev.ReportingType)
			}
			logger.Debugf("Matching %s expression found: key: %s - value: %s", strings.ToLower(m[1]), spec.Name, val)
			table.Set(spec)
		}
	}

	return tc, warnings
}
