package rediskeys

import (
	"fmt"

	"github.com/pkg/errors"
)

var errEmptyMetricName = errors.New("metric name is empty")

// UnknownDirectiveError is the config warning raised for a directive that
// the ingestion does not recognize.  It never stops ingestion.
type UnknownDirectiveError struct {
	Key string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown config key: %s", e.Key)
}

// InvalidDirectiveError is a config warning for a recognized directive whose
// value could not be used.  The previous (or default) value is kept.
type InvalidDirectiveError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidDirectiveError) Error() string {
	return fmt.Sprintf("invalid value %q for config key %s: %v", e.Value, e.Key, e.Err)
}

// ConnectionError means the target could not be reached or the INFO command
// failed.  The target is skipped for the rest of the cycle.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("error connecting to %s: %v", e.Target, e.Err)
}

// Cause allows github.com/pkg/errors to unwrap the error.
func (e *ConnectionError) Cause() error {
	return e.Err
}

// EmptyResultError means INFO succeeded but returned no fields.
type EmptyResultError struct {
	Target string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no info received from %s", e.Target)
}

// FieldNotFoundError is raised when a configured INFO field is missing from
// the server's response.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("info key not found: %s", e.Field)
}

// NumericParseError is raised for a raw value that is neither an integer nor
// a float.
type NumericParseError struct {
	Value string
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("value %q is not numeric", e.Value)
}

// UnknownKeyTypeError is returned by Resolve when the server reports a key
// type this package does not know how to measure.
type UnknownKeyTypeError struct {
	Key  string
	Type string
}

func (e *UnknownKeyTypeError) Error() string {
	return fmt.Sprintf("key %s has unsupported type %q", e.Key, e.Type)
}

// NegativeCounterError is returned by the dispatcher for a negative value
// with the counter reporting type, which a collectd COUNTER data source
// cannot represent.  The value is not sent.
type NegativeCounterError struct {
	Name  string
	Value Number
}

func (e *NegativeCounterError) Error() string {
	return fmt.Sprintf("negative value %s cannot be reported as counter %s", e.Value, e.Name)
}
