// Package writer contains the destinations that the values collected by the
// agent are written to.  Every destination implements the collectd
// api.Writer interface, and the Writer type fans values out to all of the
// enabled destinations.
package writer

import (
	"context"
	"io"

	"collectd.org/api"
	"github.com/signalfx/redis-keys-agent/internal/core/config"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type flusher interface {
	Flush() error
}

type namedWriter struct {
	name string
	api.Writer
}

// Writer sends every value list to all enabled destinations
type Writer struct {
	writers   []namedWriter
	logValues bool
}

var _ api.Writer = &Writer{}

// New creates the destinations that are enabled in conf.  stdout is where
// the putval writer writes.
func New(conf *config.WriterConfig, stdout io.Writer) (*Writer, error) {
	w := &Writer{
		logValues: conf.LogValues,
	}

	if conf.Collectd.Enabled {
		cw, err := NewCollectdWriter(&conf.Collectd)
		if err != nil {
			return nil, err
		}
		w.add("collectd", cw)
	}

	if conf.Putval.Enabled {
		w.add("putval", NewPutvalWriter(stdout))
	}

	if conf.SignalFx.Enabled {
		sw, err := NewSignalFxWriter(&conf.SignalFx)
		if err != nil {
			w.Close()
			return nil, err
		}
		w.add("signalfx", sw)
	}

	return w, nil
}

func (w *Writer) add(name string, aw api.Writer) {
	log.WithField("writer", name).Info("Enabled writer")
	w.writers = append(w.writers, namedWriter{name: name, Writer: aw})
}

// Write sends vl to every destination.  A failing destination does not
// prevent the others from receiving the value.
func (w *Writer) Write(ctx context.Context, vl *api.ValueList) error {
	if w.logValues {
		log.Debugf("Writing value %s: %v", vl.Identifier, vl.Values)
	}

	var errs error
	for _, nw := range w.writers {
		if err := nw.Write(ctx, vl); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// SignalFx returns the SignalFx destination, or nil if it is not enabled
func (w *Writer) SignalFx() *SignalFxWriter {
	for _, nw := range w.writers {
		if sw, ok := nw.Writer.(*SignalFxWriter); ok {
			return sw
		}
	}
	return nil
}

// Flush sends any values that destinations have buffered
func (w *Writer) Flush() error {
	var errs error
	for _, nw := range w.writers {
		if f, ok := nw.Writer.(flusher); ok {
			errs = multierr.Append(errs, f.Flush())
		}
	}
	return errs
}

// Close flushes and releases every destination
func (w *Writer) Close() error {
	errs := w.Flush()
	for _, nw := range w.writers {
		if c, ok := nw.Writer.(io.Closer); ok {
			errs = multierr.Append(errs, c.Close())
		}
	}
	return errs
}
