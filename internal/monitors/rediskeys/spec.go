package rediskeys

const defaultReportingType = "gauge"

// INFO fields that are always reported as counters under a fixed name,
// whatever alias is configured for them.
var canonicalRenames = map[string]string{
	"total_connections_received": "connections_received",
	"total_commands_processed":   "commands_processed",
}

// MetricSpec describes a single configured metric, either an INFO field or a
// Redis key.
type MetricSpec struct {
	// The INFO field or the Redis key name
	Name string
	// The collectd type the value is reported as (e.g. gauge, counter)
	ReportingType string
	// Optional name to report the value under instead of Name
	Alias string
}

// DisplayName is the type instance the metric is dispatched under.
func (ms MetricSpec) DisplayName() string {
	if ms.Alias != "" {
		return ms.Alias
	}
	return ms.Name
}

// infoDisplay returns the type and type instance used for an INFO field,
// applying the canonical renames.
func (ms MetricSpec) infoDisplay() (reportingType, displayName string) {
	if renamed, ok := canonicalRenames[ms.Name]; ok {
		return "counter", renamed
	}
	return ms.ReportingType, ms.DisplayName()
}

// MetricSpecTable is an insertion ordered set of metric specs keyed by name.
// Setting an existing name overwrites the spec but keeps its position.
type MetricSpecTable struct {
	order []string
	specs map[string]MetricSpec
}

// NewMetricSpecTable creates an empty table
func NewMetricSpecTable() *MetricSpecTable {
	return &MetricSpecTable{
		specs: map[string]MetricSpec{},
	}
}

// Set adds or overwrites the spec with the same name.
func (t *MetricSpecTable) Set(spec MetricSpec) {
	if spec.ReportingType == "" {
		spec.ReportingType = defaultReportingType
	}
	if _, ok := t.specs[spec.Name]; !ok {
		t.order = append(t.order, spec.Name)
	}
	t.specs[spec.Name] = spec
}

// Get looks up a spec by name
func (t *MetricSpecTable) Get(name string) (MetricSpec, bool) {
	if t == nil {
		return MetricSpec{}, false
	}
	spec, ok := t.specs[name]
	return spec, ok
}

// Len is the number of specs in the table
func (t *MetricSpecTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// All returns the specs in insertion order.
func (t *MetricSpecTable) All() []MetricSpec {
	if t == nil {
		return nil
	}
	out := make([]MetricSpec, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.specs[name])
	}
	return out
}

// Merge sets every spec of other into t, in other's order.
func (t *MetricSpecTable) Merge(other *MetricSpecTable) {
	for _, spec := range other.All() {
		t.Set(spec)
	}
}

// Copy returns an independent copy of the table.
func (t *MetricSpecTable) Copy() *MetricSpecTable {
	out := NewMetricSpecTable()
	out.Merge(t)
	return out
}
