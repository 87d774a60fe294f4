package rediskeys

import (
	"fmt"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Directive is one key/values node of a target's configuration block, in the
// same shape as a collectd plugin config node.
type Directive struct {
	Key    string
	Values []string
}

// Value returns the first value of the directive, or an empty string if it
// has none.
func (d Directive) Value() string {
	if len(d.Values) == 0 {
		return ""
	}
	return d.Values[0]
}

// Block is the ordered list of directives that configures a single target.
type Block []Directive

// BlockFromMapSlice converts a YAML mapping, decoded as a MapSlice so that the
// original ordering is kept, into a Block.  Sequence values become
// multi-valued directives and scalars become single-valued ones.
func BlockFromMapSlice(ms yaml.MapSlice) (Block, error) {
	block := make(Block, 0, len(ms))
	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			return nil, errors.Errorf("config key %v is not a string", item.Key)
		}

		d := Directive{Key: key}
		switch v := item.Value.(type) {
		case nil:
		case []interface{}:
			for i := range v {
				s, err := scalarString(v[i])
				if err != nil {
					return nil, errors.Wrapf(err, "config key %s", key)
				}
				d.Values = append(d.Values, s)
			}
		default:
			s, err := scalarString(v)
			if err != nil {
				return nil, errors.Wrapf(err, "config key %s", key)
			}
			d.Values = []string{s}
		}
		block = append(block, d)
	}
	return block, nil
}

func scalarString(v interface{}) (string, error) {
	switch v.(type) {
	case yaml.MapSlice, map[interface{}]interface{}, []interface{}:
		return "", errors.Errorf("nested value %v is not supported", v)
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}
