package writer

import (
	"io"

	"collectd.org/format"
)

// NewPutvalWriter writes every value as a PUTVAL line to w, which is what
// collectd's exec plugin reads from the stdout of its children.
func NewPutvalWriter(w io.Writer) *format.Putval {
	return format.NewPutval(w)
}
