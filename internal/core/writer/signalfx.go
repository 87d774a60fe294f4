package writer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/golib/v3/sfxclient"
	"github.com/signalfx/redis-keys-agent/internal/core/config"
	log "github.com/sirupsen/logrus"
)

// SignalFxWriter converts collectd values to datapoints and sends them to
// SignalFx ingest.  Datapoints are buffered until Flush is called.
type SignalFxWriter struct {
	client *sfxclient.HTTPSink

	lock   sync.Mutex
	buffer []*datapoint.Datapoint

	dpsSent int64
}

// NewSignalFxWriter creates a writer for the configured ingest URL
func NewSignalFxWriter(conf *config.SignalFxWriterConfig) (*SignalFxWriter, error) {
	ingestURL, err := conf.ParsedIngestURL()
	if err != nil {
		return nil, err
	}

	dpEndpointURL, err := ingestURL.Parse("v2/datapoint")
	if err != nil {
		return nil, errors.Wrapf(err, "could not construct datapoint ingest URL from %s", ingestURL)
	}

	sw := &SignalFxWriter{
		client: sfxclient.NewHTTPSink(),
	}
	sw.client.AuthToken = conf.AccessToken
	sw.client.DatapointEndpoint = dpEndpointURL.String()
	sw.client.Client.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 90 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return sw, nil
}

// Write buffers the value list as a datapoint
func (sw *SignalFxWriter) Write(_ context.Context, vl *api.ValueList) error {
	dps := valueListToDatapoints(vl)

	sw.lock.Lock()
	sw.buffer = append(sw.buffer, dps...)
	sw.lock.Unlock()
	return nil
}

// Flush sends the buffered datapoints synchronously.  If sending fails the
// datapoints are dropped.
func (sw *SignalFxWriter) Flush() error {
	sw.lock.Lock()
	dps := sw.buffer
	sw.buffer = nil
	sw.lock.Unlock()

	if len(dps) == 0 {
		return nil
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		for i := range dps {
			log.WithFields(datapointFields(dps[i])).Debug("Sending datapoint")
		}
	}

	if err := sw.client.AddDatapoints(context.Background(), dps); err != nil {
		return errors.Wrap(err, "error shipping datapoints to SignalFx")
	}
	atomic.AddInt64(&sw.dpsSent, int64(len(dps)))
	log.Debugf("Sent %d datapoints to SignalFx", len(dps))
	return nil
}

// DatapointsSent is the number of datapoints successfully sent so far
func (sw *SignalFxWriter) DatapointsSent() int64 {
	return atomic.LoadInt64(&sw.dpsSent)
}

// valueListToDatapoints names datapoints the same way the SignalFx collectd
// write plugin does: `<type>.<type_instance>`, with the plugin, plugin
// instance and host as dimensions.
func valueListToDatapoints(vl *api.ValueList) []*datapoint.Datapoint {
	dims := map[string]string{
		"plugin": vl.Plugin,
		"host":   vl.Host,
	}
	if vl.PluginInstance != "" {
		dims["plugin_instance"] = vl.PluginInstance
	}

	out := make([]*datapoint.Datapoint, 0, len(vl.Values))
	for i, v := range vl.Values {
		name := vl.Type
		if vl.TypeInstance != "" {
			name += "." + vl.TypeInstance
		}
		if len(vl.Values) > 1 {
			if i < len(vl.DSNames) {
				name += "." + vl.DSNames[i]
			} else {
				name += "." + strconv.Itoa(i)
			}
		}

		var dp *datapoint.Datapoint
		switch val := v.(type) {
		case api.Gauge:
			dp = datapoint.New(name, dims, datapoint.NewFloatValue(float64(val)), datapoint.Gauge, vl.Time)
		case api.Derive:
			dp = datapoint.New(name, dims, datapoint.NewIntValue(int64(val)), datapoint.Counter, vl.Time)
		case api.Counter:
			dp = datapoint.New(name, dims, datapoint.NewIntValue(int64(val)), datapoint.Counter, vl.Time)
		default:
			log.Warnf("Unsupported collectd value type %T for %s", v, vl.Identifier)
			continue
		}
		out = append(out, dp)
	}
	return out
}

// datapointFields describes a datapoint in terms of the redis_keys value it
// came from.
func datapointFields(dp *datapoint.Datapoint) log.Fields {
	fields := log.Fields{
		"metric":    dp.Metric,
		"value":     dp.Value.String(),
		"target":    dp.Dimensions["plugin_instance"],
		"host":      dp.Dimensions["host"],
		"timestamp": dp.Timestamp.Unix(),
	}
	switch dp.MetricType {
	case datapoint.Gauge:
		fields["metricType"] = "gauge"
	case datapoint.Counter:
		fields["metricType"] = "cumulative counter"
	default:
		fields["metricType"] = fmt.Sprintf("unsupported type %d", dp.MetricType)
	}
	return fields
}
